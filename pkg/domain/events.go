package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventPoll        EventType = "poll"
	EventNotify      EventType = "notify"
	EventSubmit      EventType = "submit"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	WorkflowID string    `json:"workflow_id"`
}

// StateEvent represents a workflow status transition.
type StateEvent struct {
	EventBase
	From Status `json:"from"`
	To   Status `json:"to"`
}

// PollEvent represents one truth table fetch.
type PollEvent struct {
	EventBase
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// NotifyEvent is a user-visible notification, usually a failed remote call.
type NotifyEvent struct {
	EventBase
	Operation string `json:"operation"`
	Message   string `json:"message"`
	Err       error  `json:"-"`
}

// SubmitEvent represents a truth table submission.
type SubmitEvent struct {
	EventBase
	ExperimentID int   `json:"experiment_id"`
	Rows         int   `json:"rows"`
	Err          error `json:"-"`
}

// LifecycleHooks defines callbacks for workflow observability.
type LifecycleHooks struct {
	OnStateChange func(context.Context, *StateEvent)
	OnPoll        func(context.Context, *PollEvent)
	OnNotify      func(context.Context, *NotifyEvent)
	OnSubmit      func(context.Context, *SubmitEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStateChange: chain(h.OnStateChange, other.OnStateChange),
		OnPoll:        chain(h.OnPoll, other.OnPoll),
		OnNotify:      chain(h.OnNotify, other.OnNotify),
		OnSubmit:      chain(h.OnSubmit, other.OnSubmit),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
