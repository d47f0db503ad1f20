// Package approval drives pending requests to a terminal state. Both the
// registration and workshop request services run on the same engine,
// parameterized by their authority check, entity-creation side effect and
// notification.
package approval

import (
	"context"

	"github.com/WMS-GIETU/WorkshopMS/core"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var ErrAlreadyProcessed = core.NewAlreadyProcessedError("Request has already been processed")

// Workflow transitions a request of type T out of the pending state.
//
// Step order is contractual: the side effect runs before the transition
// commits, so a failed entity creation leaves the request pending and safe
// to retry; the notification runs after the commit and its failure never
// rolls the transition back.
type Workflow[T any] struct {
	// Status extracts the request's current state.
	Status func(req T) Status
	// Authorize validates the actor's authority over the request.
	Authorize func(ctx context.Context, req T) error
	// Effect performs the approval side effect (entity creation). It may
	// mutate the request, e.g. to link the created entity's id. Only run
	// on approval.
	Effect func(ctx context.Context, req *T) error
	// Commit persists the terminal transition. Implementations must make
	// it conditional on the stored status still being pending.
	Commit func(ctx context.Context, req T, outcome Status) (T, error)
	// Notify dispatches the advisory notification for the outcome.
	Notify func(req T, outcome Status)
}

func (w Workflow[T]) Approve(ctx context.Context, req T) (T, error) {
	return w.run(ctx, req, StatusApproved)
}

func (w Workflow[T]) Reject(ctx context.Context, req T) (T, error) {
	return w.run(ctx, req, StatusRejected)
}

func (w Workflow[T]) run(ctx context.Context, req T, outcome Status) (T, error) {
	var zero T
	if w.Status(req) != StatusPending {
		return zero, ErrAlreadyProcessed
	}
	if w.Authorize != nil {
		if err := w.Authorize(ctx, req); err != nil {
			return zero, err
		}
	}
	if outcome == StatusApproved && w.Effect != nil {
		if err := w.Effect(ctx, &req); err != nil {
			return zero, err
		}
	}
	req, err := w.Commit(ctx, req, outcome)
	if err != nil {
		return zero, err
	}
	if w.Notify != nil {
		w.Notify(req, outcome)
	}
	return req, nil
}
