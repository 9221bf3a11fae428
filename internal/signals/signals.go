// Package signals handles out-of-band control of a running deliberation
// via the .witan directory. Kill and pause files stop or hold the
// session; answer files under escalations/ let a human decide an
// escalated tension from outside the process.
package signals

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EscalationAnswer is a human decision for one escalated tension,
// parsed from an answer file.
type EscalationAnswer struct {
	// ProtocolID names the tension the answer addresses.
	ProtocolID string
	// Accept is true when the first line of the file reads ACCEPT.
	Accept bool
	// Rationale is the rest of the file, trimmed.
	Rationale string
}

// Watcher monitors the .witan directory for control signals and
// escalation answers.
type Watcher struct {
	witanDir string

	mu          sync.RWMutex
	stopSignal  bool
	pauseSignal bool
	answers     map[string]EscalationAnswer

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher rooted at the given directory.
func NewWatcher(rootPath string) (*Watcher, error) {
	witanDir := filepath.Join(rootPath, ".witan")

	// Ensure directories exist
	dirs := []string{
		witanDir,
		filepath.Join(witanDir, "signals"),
		filepath.Join(witanDir, "escalations"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	w := &Watcher{
		witanDir: witanDir,
		answers:  make(map[string]EscalationAnswer),
		done:     make(chan struct{}),
	}

	// Start file watcher for immediate signals
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher - callers fall back to polling
		return w, nil
	}
	w.watcher = fsw

	if err := fsw.Add(filepath.Join(witanDir, "signals")); err != nil {
		fsw.Close()
		w.watcher = nil
		return w, nil
	}
	if err := fsw.Add(filepath.Join(witanDir, "escalations")); err != nil {
		fsw.Close()
		w.watcher = nil
		return w, nil
	}

	go w.watch()

	return w, nil
}

// watch monitors the signal and escalation directories.
func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == 0 && event.Op&fsnotify.Write == 0 {
				continue
			}
			switch filepath.Base(filepath.Dir(event.Name)) {
			case "signals":
				// Re-stat before setting: a stale event must not
				// resurrect a signal that was already cleared.
				if _, err := os.Stat(event.Name); err != nil {
					continue
				}
				w.mu.Lock()
				switch filepath.Base(event.Name) {
				case "kill":
					w.stopSignal = true
				case "pause":
					w.pauseSignal = true
				}
				w.mu.Unlock()
			case "escalations":
				w.recordAnswerFile(event.Name)
			}
		case <-w.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// recordAnswerFile parses an answer file and caches the result.
// Files that do not parse are ignored; the human may still be writing.
func (w *Watcher) recordAnswerFile(path string) {
	protocolID := strings.TrimSuffix(filepath.Base(path), ".md")
	if protocolID == "" || protocolID == filepath.Base(path) {
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	answer, ok := parseAnswer(protocolID, string(content))
	if !ok {
		return
	}
	w.mu.Lock()
	w.answers[protocolID] = answer
	w.mu.Unlock()
}

// parseAnswer reads an answer file body. The first non-empty line must
// be ACCEPT or REJECT (case-insensitive); everything after it is the
// rationale.
func parseAnswer(protocolID, content string) (EscalationAnswer, bool) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		verdict := strings.ToUpper(strings.TrimSpace(line))
		if verdict == "" {
			continue
		}
		if verdict != "ACCEPT" && verdict != "REJECT" {
			return EscalationAnswer{}, false
		}
		return EscalationAnswer{
			ProtocolID: protocolID,
			Accept:     verdict == "ACCEPT",
			Rationale:  strings.TrimSpace(strings.Join(lines[i+1:], "\n")),
		}, true
	}
	return EscalationAnswer{}, false
}

// ReadAnswer returns the answer for a protocol if one has been given.
// It checks the file directly in case the watcher missed the event.
func (w *Watcher) ReadAnswer(protocolID string) (EscalationAnswer, bool) {
	w.mu.RLock()
	answer, ok := w.answers[protocolID]
	w.mu.RUnlock()
	if ok {
		return answer, true
	}

	path := filepath.Join(w.witanDir, "escalations", protocolID+".md")
	content, err := os.ReadFile(path)
	if err != nil {
		return EscalationAnswer{}, false
	}
	answer, ok = parseAnswer(protocolID, string(content))
	if !ok {
		return EscalationAnswer{}, false
	}

	w.mu.Lock()
	w.answers[protocolID] = answer
	w.mu.Unlock()
	return answer, true
}

// WriteAnswer records a human decision for an escalated tension so a
// deliberation waiting in another process picks it up.
func (w *Watcher) WriteAnswer(protocolID string, accept bool, rationale string) error {
	verdict := "REJECT"
	if accept {
		verdict = "ACCEPT"
	}
	body := verdict + "\n"
	if rationale != "" {
		body += "\n" + rationale + "\n"
	}
	path := filepath.Join(w.witanDir, "escalations", protocolID+".md")
	return os.WriteFile(path, []byte(body), 0644)
}

// ClearAnswer removes the answer file and cached answer for a protocol.
// The file goes first so an in-flight watcher event cannot re-cache it.
func (w *Watcher) ClearAnswer(protocolID string) {
	os.Remove(filepath.Join(w.witanDir, "escalations", protocolID+".md"))
	w.mu.Lock()
	delete(w.answers, protocolID)
	w.mu.Unlock()
}

// ShouldStop returns true if a kill signal has been received.
func (w *Watcher) ShouldStop() bool {
	// Also check file directly in case watcher missed it
	killPath := filepath.Join(w.witanDir, "signals", "kill")
	if _, err := os.Stat(killPath); err == nil {
		w.mu.Lock()
		w.stopSignal = true
		w.mu.Unlock()
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stopSignal
}

// ShouldPause returns true if a pause signal has been received.
func (w *Watcher) ShouldPause() bool {
	pausePath := filepath.Join(w.witanDir, "signals", "pause")
	if _, err := os.Stat(pausePath); err == nil {
		w.mu.Lock()
		w.pauseSignal = true
		w.mu.Unlock()
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pauseSignal
}

// SendKill creates a kill signal file.
func (w *Watcher) SendKill() error {
	path := filepath.Join(w.witanDir, "signals", "kill")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// SendPause creates a pause signal file.
func (w *Watcher) SendPause() error {
	path := filepath.Join(w.witanDir, "signals", "pause")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// ClearSignals removes all signal files and resets signal state.
// Files go first so an in-flight watcher event cannot set a flag back.
func (w *Watcher) ClearSignals() {
	os.Remove(filepath.Join(w.witanDir, "signals", "kill"))
	os.Remove(filepath.Join(w.witanDir, "signals", "pause"))

	w.mu.Lock()
	w.stopSignal = false
	w.pauseSignal = false
	w.mu.Unlock()
}

// WitanDir returns the path to the .witan directory.
func (w *Watcher) WitanDir() string {
	return w.witanDir
}

// Close shuts down the watcher.
func (w *Watcher) Close() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
}
