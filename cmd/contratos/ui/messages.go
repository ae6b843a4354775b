package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/Xlonenzo/contratos/internal/annotation"
)

// annotationResultMsg carries the outcome of an async annotation create
// back to the UI loop. The draft id lets the workflow drop responses for
// drafts that were canceled or replaced while the call was in flight.
type annotationResultMsg struct {
	draftID uuid.UUID
	rec     *annotation.Record
	err     error
}

// statusMsg replaces the footer status line.
type statusMsg string

// clearStatusMsg clears a stale status line.
type clearStatusMsg struct{}

// submitAnnotation runs the persistence call off the UI loop.
func submitAnnotation(svc annotation.Service, req *annotation.CreateRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		rec, err := svc.CreateAnnotation(ctx, *req)
		return annotationResultMsg{draftID: req.DraftID, rec: rec, err: err}
	}
}

// clearStatusAfter expires the status line.
func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearStatusMsg{} })
}
