package domain

// Status gates which workflow action is available.
type Status string

const (
	StatusUnconfigured Status = "unconfigured" // Device not armed yet
	StatusConfigured   Status = "configured"   // Armed, not polling
	StatusPolling      Status = "polling"      // Armed and polling the truth table
)

// Configured reports whether the device has been armed.
func (s Status) Configured() bool {
	return s == StatusConfigured || s == StatusPolling
}

// Snapshot is a read-only copy of a workflow for display.
type Snapshot struct {
	ID         string      `json:"id"`
	Experiment Experiment  `json:"experiment"`
	Status     Status      `json:"status"`
	Inputs     []Row       `json:"inputs"`
	Outputs    [][]string  `json:"outputs,omitempty"`
	Rows       []PairedRow `json:"rows"`
	// Misaligned carries the alignment problem, if any, as text.
	Misaligned string `json:"misaligned,omitempty"`
}
