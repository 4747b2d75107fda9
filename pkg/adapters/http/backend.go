package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// DefaultDescriptorPath is the collection segment used for experiment descriptors.
const DefaultDescriptorPath = "experiment"

// BackendClient talks to the lab backend (authentication, descriptors, results).
// It implements ports.Backend.
type BackendClient struct {
	*client
}

// NewBackendClient creates a client for the backend at apiURL.
func NewBackendClient(apiURL string, opts ...Option) (*BackendClient, error) {
	c, err := newClient(apiURL, opts...)
	if err != nil {
		return nil, err
	}
	return &BackendClient{client: c}, nil
}

// Authenticate exchanges a practicum credential for a session (POST auth/authenticate).
func (b *BackendClient) Authenticate(ctx context.Context, credential string) (domain.Credentials, error) {
	body, err := b.postJSON(ctx, "auth/authenticate", map[string]string{
		domain.KeyCredentials: credential,
	})
	if err != nil {
		return domain.Credentials{}, err
	}
	return decodeCredentials(body)
}

// Login signs in with a student id and password (POST auth/login).
func (b *BackendClient) Login(ctx context.Context, login domain.Login) (domain.Credentials, error) {
	if err := login.Validate(); err != nil {
		return domain.Credentials{}, err
	}
	body, err := b.postJSON(ctx, "auth/login", map[string]string{
		"email":                 login.Email(),
		"password":              login.Password,
		"password_confirmation": login.Password,
	})
	if err != nil {
		return domain.Credentials{}, err
	}
	return decodeCredentials(body)
}

// Experiment fetches the descriptor for one experiment.
func (b *BackendClient) Experiment(ctx context.Context, id int) (domain.Experiment, error) {
	body, err := b.do(ctx, http.MethodGet, b.descriptorPath+"/"+strconv.Itoa(id), "", nil)
	if err != nil {
		return domain.Experiment{}, err
	}
	exp, err := decodeExperiment(body)
	if err != nil {
		return domain.Experiment{}, err
	}
	if exp.ID == 0 {
		exp.ID = id
	}
	exp = exp.WithDefaultLabels()
	if err := exp.Validate(); err != nil {
		return domain.Experiment{}, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	return exp, nil
}

// Submit persists the results of an experiment (POST experiment/{id}).
func (b *BackendClient) Submit(ctx context.Context, sub domain.Submission) error {
	_, err := b.postJSON(ctx, "experiment/"+strconv.Itoa(sub.ExperimentID), sub)
	return err
}

// credentialFields covers the response shapes seen from the backend:
// {"data": "<token>"}, {"data": {...}}, {"credentials": ..., "module": n} and
// {"token": ..., "module_num": n}.
type credentialFields struct {
	Data        any    `mapstructure:"data"`
	Credentials any    `mapstructure:"credentials"`
	Token       string `mapstructure:"token"`
	Module      *int   `mapstructure:"module"`
	ModuleNum   *int   `mapstructure:"module_num"`
}

func decodeCredentials(body []byte) (domain.Credentials, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.Credentials{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return credentialsFrom(raw, 0)
}

func credentialsFrom(raw any, depth int) (domain.Credentials, error) {
	if s, ok := raw.(string); ok && s != "" {
		return domain.Credentials{Token: s}, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok || depth > 1 {
		return domain.Credentials{}, fmt.Errorf("%w: no credentials in response", domain.ErrMalformedResponse)
	}

	var f credentialFields
	if err := weakDecode(obj, &f); err != nil {
		return domain.Credentials{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	var creds domain.Credentials
	if f.Data != nil {
		inner, err := credentialsFrom(f.Data, depth+1)
		if err != nil {
			return domain.Credentials{}, err
		}
		creds = inner
	}

	switch v := f.Credentials.(type) {
	case nil:
	case string:
		creds.Token = v
	default:
		// Structured credentials are opaque; keep their JSON text as the token.
		text, err := json.Marshal(v)
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}
		creds.Token = string(text)
	}
	if creds.Token == "" {
		creds.Token = f.Token
	}
	if f.Module != nil {
		creds.Module = *f.Module
	} else if f.ModuleNum != nil {
		creds.Module = *f.ModuleNum
	}

	if creds.Token == "" {
		return domain.Credentials{}, fmt.Errorf("%w: no credentials in response", domain.ErrMalformedResponse)
	}
	return creds, nil
}

// experimentFields accepts both short and device-style count names.
type experimentFields struct {
	ID           int      `mapstructure:"id"`
	Name         string   `mapstructure:"name"`
	Inputs       *int     `mapstructure:"inputs"`
	NumInputs    *int     `mapstructure:"num_inputs"`
	Outputs      *int     `mapstructure:"outputs"`
	NumOutputs   *int     `mapstructure:"num_outputs"`
	InputLabels  []string `mapstructure:"input_labels"`
	OutputLabels []string `mapstructure:"output_labels"`
}

func decodeExperiment(body []byte) (domain.Experiment, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.Experiment{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if data, ok := raw["data"].(map[string]any); ok {
		raw = data
	}

	var f experimentFields
	if err := weakDecode(raw, &f); err != nil {
		return domain.Experiment{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	inputs := firstOf(f.Inputs, f.NumInputs)
	outputs := firstOf(f.Outputs, f.NumOutputs)
	if inputs == nil || outputs == nil {
		return domain.Experiment{}, fmt.Errorf("%w: descriptor lacks input or output count", domain.ErrMalformedResponse)
	}
	return domain.Experiment{
		ID:           f.ID,
		Name:         f.Name,
		Inputs:       *inputs,
		Outputs:      *outputs,
		InputLabels:  f.InputLabels,
		OutputLabels: f.OutputLabels,
	}, nil
}

func firstOf(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func weakDecode(input, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
