package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/witanworks/witan/internal/council"
	"github.com/witanworks/witan/internal/deliberation"
	"github.com/witanworks/witan/internal/tui"
	"github.com/witanworks/witan/pkg/models"
)

// sessionResult pairs the verdict with the error from Session.Run.
type sessionResult struct {
	verdict *models.Verdict
	err     error
}

// runWithTUI runs the deliberation behind an interactive TUI.
func runWithTUI(ctx context.Context, session *deliberation.Session, tier models.Tier, roster *council.Roster) (retErr error) {
	// Suppress log output while the TUI is active (it corrupts the display)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("PANIC in runWithTUI: %v", r)
		}
	}()

	app := tui.New(session.Proposal(), tier, roster.Members())
	app.SetEvents(session.Events())
	app.SetRespondFunc(session.RespondEscalation)
	program, _ := tui.NewProgram(app)
	if program == nil {
		return fmt.Errorf("failed to create TUI program (nil)")
	}

	// Start the deliberation in the background
	sessionDone := make(chan sessionResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				sessionDone <- sessionResult{err: fmt.Errorf("PANIC in deliberation: %v", r)}
			}
		}()
		verdict, err := session.Run(ctx)
		sessionDone <- sessionResult{verdict: verdict, err: err}
	}()

	tuiDone := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				tuiDone <- fmt.Errorf("PANIC in TUI: %v", r)
			}
		}()
		_, err := program.Run()
		tuiDone <- err
	}()

	// Wait for either completion
	select {
	case res := <-sessionDone:
		// The done event reaches the TUI through the event channel.
		// Wait for the user to read the verdict and quit (press q).
		<-tuiDone
		if res.err != nil {
			return fmt.Errorf("deliberation failed: %w", res.err)
		}
		printVerdict(res.verdict)
		return nil

	case err := <-tuiDone:
		// User quit early; the deferred cancel in runDeliberate stops
		// the session.
		return err
	}
}
