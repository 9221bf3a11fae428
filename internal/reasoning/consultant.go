package reasoning

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/witanworks/witan/pkg/models"
)

// ErrUnparseableResponse is returned when a member's reply does not
// carry a usable RATING line. There is no fuzzy recovery: the wire
// format is fixed and a reply outside it is dropped by the caller.
var ErrUnparseableResponse = errors.New("unparseable consultation response")

// responseFormat is the fixed wire format every member must answer in.
// parseConsultResponse is its only reader; keep the two in sync.
const responseFormat = `Your answer MUST use exactly this format:
RATING: one of ACCEPT, ENDORSE, WARN, BLOCK
CONFIDENCE: a number between 0 and 1
REASONING:
your reasoning, any length`

// Consultant obtains one council member's verdict on a proposal.
// Implementations may be called concurrently for different members.
type Consultant interface {
	Consult(ctx context.Context, member models.Member, req ConsultRequest) (models.AgentResponse, error)
}

// ConsultRequest carries the material a member reviews.
type ConsultRequest struct {
	// Proposal is the text under review.
	Proposal string
	// Round is the consultation round, starting at 1.
	Round int
	// TensionContext carries the standing conflict when a member is
	// re-consulted during resolution; empty on the first round.
	TensionContext string
}

// ConsultantConfig configures an APIConsultant.
type ConsultantConfig struct {
	// Client is the shared API client. Required.
	Client *Client
	// TierModels overrides the primary model per tier.
	TierModels map[models.Tier]string
	// TierFallbacks overrides the fallback model per tier.
	TierFallbacks map[models.Tier]string
	// MaxTokens bounds each reply. Defaults to 1024.
	MaxTokens int64
}

// APIConsultant consults members through the Anthropic Messages API,
// retrying once on the tier's fallback model when the primary call
// fails.
type APIConsultant struct {
	client        *Client
	tierModels    map[models.Tier]string
	tierFallbacks map[models.Tier]string
	maxTokens     int64
}

// NewAPIConsultant creates a consultant from the given configuration.
func NewAPIConsultant(cfg ConsultantConfig) (*APIConsultant, error) {
	if cfg.Client == nil {
		return nil, errors.New("consultant requires an API client")
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &APIConsultant{
		client:        cfg.Client,
		tierModels:    cfg.TierModels,
		tierFallbacks: cfg.TierFallbacks,
		maxTokens:     maxTokens,
	}, nil
}

// Consult asks one member for a verdict and parses the reply. A failed
// primary call is retried once on the fallback model; a reply outside
// the wire format is an error, not a guess.
func (c *APIConsultant) Consult(ctx context.Context, member models.Member, req ConsultRequest) (models.AgentResponse, error) {
	primary, fallback := c.modelsFor(member, req.Proposal)

	output, used, err := c.call(ctx, member, req, primary)
	if err != nil && fallback != "" && fallback != primary {
		output, used, err = c.call(ctx, member, req, fallback)
	}
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("consult %s: %w", member.ID, err)
	}

	resp, err := parseConsultResponse(output)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("consult %s: %w", member.ID, err)
	}
	resp.AgentID = member.ID
	resp.Model = used
	resp.ReceivedAt = time.Now().UTC()
	return resp, nil
}

// modelsFor picks the primary and fallback model for a consultation,
// letting configured tier overrides beat the built-in defaults and the
// proposal's keyword nudge beat both.
func (c *APIConsultant) modelsFor(member models.Member, proposal string) (primary, fallback string) {
	primary = SelectModel(proposal, member.Tier)
	if primary == tierDefault(member.Tier) {
		// No keyword nudge fired; a configured override may apply.
		if override, ok := c.tierModels[member.Tier]; ok && override != "" {
			primary = override
		}
	}
	fallback = tierFallback(member.Tier)
	if override, ok := c.tierFallbacks[member.Tier]; ok && override != "" {
		fallback = override
	}
	return primary, fallback
}

// call makes one Messages API request and returns the concatenated
// text blocks along with the model that served them.
func (c *APIConsultant) call(ctx context.Context, member models.Member, req ConsultRequest, model string) (string, string, error) {
	resp, err := c.client.sdk().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.client.ResolveModel(model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: buildSystemPrompt(member)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(req))),
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("model %s: %w", model, err)
	}

	c.client.Tracker().Add(model, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var out strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(variant.Text)
		}
	}
	return out.String(), model, nil
}

// buildSystemPrompt combines the member's perspective with the wire
// format contract.
func buildSystemPrompt(member models.Member) string {
	return member.Perspective + "\n\n" + responseFormat
}

// buildUserPrompt constructs the consultation request text.
func buildUserPrompt(req ConsultRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PROPOSAL UNDER REVIEW:\n%s\n", req.Proposal)
	if req.Round > 1 {
		fmt.Fprintf(&b, "\nThis is consultation round %d.\n", req.Round)
	}
	if req.TensionContext != "" {
		fmt.Fprintf(&b, "\nSTANDING CONFLICT:\n%s\n\nReconsider your verdict with this conflict in mind. Holding your position is legitimate; say why.\n", req.TensionContext)
	}
	return b.String()
}

// parseConsultResponse extracts the rating, confidence, and reasoning
// from a member's reply. The rating is mandatory and must be one of
// the four known values. Confidence defaults to 0.5 when missing or
// malformed and is clamped into [0, 1]. Reasoning is everything after
// the REASONING: marker.
func parseConsultResponse(output string) (models.AgentResponse, error) {
	resp := models.AgentResponse{Confidence: 0.5}
	ratingFound := false

	lines := strings.Split(output, "\n")
scan:
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		switch {
		case !ratingFound && strings.HasPrefix(upper, "RATING:"):
			value := models.Rating(strings.ToUpper(strings.TrimSpace(trimmed[len("RATING:"):])))
			if !value.Valid() {
				return models.AgentResponse{}, fmt.Errorf("%w: bad rating %q", ErrUnparseableResponse, value)
			}
			resp.Rating = value
			ratingFound = true

		case strings.HasPrefix(upper, "CONFIDENCE:"):
			raw := strings.TrimSpace(trimmed[len("CONFIDENCE:"):])
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				resp.Confidence = clamp01(f)
			}

		case strings.HasPrefix(upper, "REASONING:"):
			// Everything from here down is reasoning, ratings inside
			// it included.
			parts := make([]string, 0, len(lines)-i)
			if after := strings.TrimSpace(trimmed[len("REASONING:"):]); after != "" {
				parts = append(parts, after)
			}
			parts = append(parts, lines[i+1:]...)
			resp.Reasoning = strings.TrimSpace(strings.Join(parts, "\n"))
			break scan
		}
	}

	if !ratingFound {
		return models.AgentResponse{}, fmt.Errorf("%w: no RATING line", ErrUnparseableResponse)
	}
	return resp, nil
}

// clamp01 bounds a confidence value into [0, 1].
func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
