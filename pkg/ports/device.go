package ports

import (
	"context"

	"github.com/aretw0/telelab/pkg/domain"
)

// Device defines the operations exposed by the remote lab device.
type Device interface {
	// SetModule arms the device for a module.
	SetModule(ctx context.Context, cfg domain.ModuleConfig) error

	// SetExperiment arms the device for an experiment.
	SetExperiment(ctx context.Context, cfg domain.ExperimentConfig) error

	// UpdateTruthTable commands the device to begin computing the truth table.
	UpdateTruthTable(ctx context.Context) error

	// TruthTable returns the current output rows, verbatim.
	TruthTable(ctx context.Context) ([][]string, error)

	// SetRelay switches a relay on or off.
	SetRelay(ctx context.Context, relay int, on bool) error

	// Inputs returns the raw input pin states.
	Inputs(ctx context.Context) ([]int, error)
}

// Backend defines the practicum backend.
type Backend interface {
	// Authenticate exchanges a practicum credential for a session credential.
	Authenticate(ctx context.Context, credential string) (domain.Credentials, error)

	// Login exchanges a student id and password for a session credential.
	Login(ctx context.Context, login domain.Login) (domain.Credentials, error)

	// Experiment fetches an experiment descriptor.
	Experiment(ctx context.Context, id int) (domain.Experiment, error)

	// Submit persists a completed truth table.
	Submit(ctx context.Context, sub domain.Submission) error
}
