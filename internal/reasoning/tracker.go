package reasoning

import (
	"strings"
	"sync"
)

// modelRates holds per-million-token pricing for a model family.
type modelRates struct {
	input  float64
	output float64
}

// Approximate public pricing per 1M tokens, keyed by family substring.
// A deliberation mixes tiers, so cost has to be priced per model, not
// with a single blended rate.
var pricing = []struct {
	family string
	rates  modelRates
}{
	{"haiku", modelRates{input: 0.80, output: 4.00}},
	{"opus", modelRates{input: 5.00, output: 25.00}},
	{"sonnet", modelRates{input: 3.00, output: 15.00}},
}

// TokenTracker accumulates token usage per model across consultations.
// Safe for concurrent use: members are consulted in parallel.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  map[string]int64
	outputTok map[string]int64
	calls     int
}

// NewTokenTracker creates an empty tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{
		inputTok:  make(map[string]int64),
		outputTok: make(map[string]int64),
	}
}

// Add records token usage from one API call against the model that
// served it.
func (t *TokenTracker) Add(model string, input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok[model] += input
	t.outputTok[model] += output
	t.calls++
}

// Total returns the input and output tokens summed over all models.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, n := range t.inputTok {
		input += n
	}
	for _, n := range t.outputTok {
		output += n
	}
	return input, output
}

// Calls returns the number of API calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Reset clears all tracked usage.
func (t *TokenTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok = make(map[string]int64)
	t.outputTok = make(map[string]int64)
	t.calls = 0
}

// Cost estimates the total cost in USD from the per-model usage.
// Unrecognized model names are priced at sonnet rates.
func (t *TokenTracker) Cost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total float64
	for model, in := range t.inputTok {
		r := ratesFor(model)
		total += float64(in) / 1_000_000 * r.input
	}
	for model, out := range t.outputTok {
		r := ratesFor(model)
		total += float64(out) / 1_000_000 * r.output
	}
	return total
}

// ratesFor matches a model name to its family pricing.
func ratesFor(model string) modelRates {
	lower := strings.ToLower(model)
	for _, p := range pricing {
		if strings.Contains(lower, p.family) {
			return p.rates
		}
	}
	return modelRates{input: 3.00, output: 15.00}
}
