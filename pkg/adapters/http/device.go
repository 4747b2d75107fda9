package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/telelab/pkg/domain"
)

// DeviceClient talks to the remote lab device.
// It implements ports.Device.
type DeviceClient struct {
	*client
}

// NewDeviceClient creates a client for the device at baseURL (e.g. "http://192.168.4.1").
func NewDeviceClient(baseURL string, opts ...Option) (*DeviceClient, error) {
	c, err := newClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &DeviceClient{client: c}, nil
}

// SetModule arms the device for a module (POST /set_module, form field config).
func (d *DeviceClient) SetModule(ctx context.Context, cfg domain.ModuleConfig) error {
	return d.postConfig(ctx, "/set_module", cfg)
}

// SetExperiment arms the device for an experiment (POST /set_experiment, form field config).
func (d *DeviceClient) SetExperiment(ctx context.Context, cfg domain.ExperimentConfig) error {
	return d.postConfig(ctx, "/set_experiment", cfg)
}

// UpdateTruthTable commands the device to begin computing the truth table.
func (d *DeviceClient) UpdateTruthTable(ctx context.Context) error {
	_, err := d.do(ctx, http.MethodPost, "/update_truth_table", "", nil)
	return err
}

// TruthTable returns the current output rows verbatim.
func (d *DeviceClient) TruthTable(ctx context.Context) ([][]string, error) {
	var payload struct {
		TruthTable *[][]string `json:"truth_table"`
	}
	if err := d.getJSON(ctx, "/truth_table", &payload); err != nil {
		return nil, err
	}
	if payload.TruthTable == nil {
		return nil, fmt.Errorf("%w: truth_table field missing", domain.ErrMalformedResponse)
	}
	return *payload.TruthTable, nil
}

// SetRelay switches relay n on or off (POST /output/relay/{n}, form field state).
func (d *DeviceClient) SetRelay(ctx context.Context, relay int, on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	form := url.Values{"state": {state}}
	_, err := d.do(ctx, http.MethodPost, fmt.Sprintf("/output/relay/%d", relay), contentTypeForm, strings.NewReader(form.Encode()))
	return err
}

// Inputs returns the raw input pin states.
func (d *DeviceClient) Inputs(ctx context.Context) ([]int, error) {
	var payload struct {
		Input *[]int `json:"input"`
	}
	if err := d.getJSON(ctx, "/input/all", &payload); err != nil {
		return nil, err
	}
	if payload.Input == nil {
		return nil, fmt.Errorf("%w: input field missing", domain.ErrMalformedResponse)
	}
	return *payload.Input, nil
}
