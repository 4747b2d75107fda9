package workflow

import "github.com/aretw0/telelab/pkg/domain"

// Transition is one edge of the workflow state machine.
type Transition struct {
	From      domain.Status
	To        domain.Status
	Operation string
}

// Transitions lists every edge a Controller follows. Operations not listed
// for the current status are rejected with domain.ErrInvalidTransition.
var Transitions = []Transition{
	{From: domain.StatusUnconfigured, To: domain.StatusConfigured, Operation: "setup"},
	{From: domain.StatusConfigured, To: domain.StatusConfigured, Operation: "setup"},
	{From: domain.StatusConfigured, To: domain.StatusPolling, Operation: "start"},
	{From: domain.StatusPolling, To: domain.StatusConfigured, Operation: "restart"},
}

// allowedFrom returns the statuses op may start from.
func allowedFrom(op string) []domain.Status {
	var out []domain.Status
	for _, t := range Transitions {
		if t.Operation == op {
			out = append(out, t.From)
		}
	}
	return out
}
