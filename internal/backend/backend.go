// Package backend defines the capability interface through which built
// refinement payloads leave the engine. The engine never performs the
// network dispatch itself; callers inject whatever Dispatcher suits them
// (an HTTP client, a queue, or a test double).
package backend

import (
	"context"
	"sync"

	"promotion-core/payload"
)

// Handle identifies a submitted refinement with the external backend.
type Handle string

// Dispatcher accepts a built refinement request for a panel.
type Dispatcher interface {
	SubmitRefinement(ctx context.Context, panelID string, req payload.Request) (Handle, error)
}

// Nop discards every submission. It is the default dispatcher: payload
// construction is the engine's final local responsibility.
type Nop struct{}

func (Nop) SubmitRefinement(context.Context, string, payload.Request) (Handle, error) {
	return "", nil
}

// Submission is one recorded dispatch.
type Submission struct {
	PanelID string
	Request payload.Request
}

// Recorder captures submissions for tests. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	subs []Submission
}

func (r *Recorder) SubmitRefinement(_ context.Context, panelID string, req payload.Request) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, Submission{PanelID: panelID, Request: req})
	return Handle(panelID), nil
}

// Submissions returns a copy of everything recorded so far.
func (r *Recorder) Submissions() []Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Submission(nil), r.subs...)
}
