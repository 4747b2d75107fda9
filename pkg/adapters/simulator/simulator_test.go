package simulator_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	client "github.com/aretw0/telelab/pkg/adapters/http"
	"github.com/aretw0/telelab/pkg/adapters/simulator"
	"github.com/aretw0/telelab/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	sim     *simulator.Simulator
	srv     *httptest.Server
	device  *client.DeviceClient
	backend *client.BackendClient
	token   string
}

func setup(t *testing.T, opts ...simulator.Option) *fixture {
	t.Helper()
	sim, err := simulator.New(opts...)
	require.NoError(t, err)
	srv := httptest.NewServer(sim)
	t.Cleanup(srv.Close)

	f := &fixture{sim: sim, srv: srv}
	f.device, err = client.NewDeviceClient(srv.URL)
	require.NoError(t, err)
	f.backend, err = client.NewBackendClient(srv.URL+"/api/", client.WithTokenSource(func(context.Context) (string, error) {
		return f.token, nil
	}))
	require.NoError(t, err)
	return f
}

func statusCode(t *testing.T, err error) int {
	t.Helper()
	var statusErr *domain.StatusError
	require.True(t, errors.As(err, &statusErr), "expected StatusError, got %v", err)
	return statusErr.Code
}

func TestDevice_RoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.device.SetModule(ctx, domain.ModuleConfig{Module: 2}))
	assert.Equal(t, 2, f.sim.Module())

	cfg := domain.ExperimentConfig{NumInputs: 2, NumOutputs: 2, NumExperiments: 7}
	require.NoError(t, f.device.SetExperiment(ctx, cfg))
	got, ok := f.sim.ExperimentConfig()
	require.True(t, ok)
	assert.Equal(t, cfg, got)

	rows, err := f.device.TruthTable(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows, "no rows before update")

	require.NoError(t, f.device.UpdateTruthTable(ctx))
	rows, err = f.device.TruthTable(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"0", "0"},
		{"1", "1"},
		{"1", "1"},
		{"0", "1"},
	}, rows)
}

func TestDevice_ProgressiveRows(t *testing.T) {
	f := setup(t, simulator.WithRowsPerRead(3))
	ctx := context.Background()

	require.NoError(t, f.device.SetExperiment(ctx, domain.ExperimentConfig{NumInputs: 3, NumOutputs: 1}))
	require.NoError(t, f.device.UpdateTruthTable(ctx))

	for _, want := range []int{3, 6, 8, 8} {
		rows, err := f.device.TruthTable(ctx)
		require.NoError(t, err)
		assert.Len(t, rows, want)
	}
}

func TestDevice_UpdateBeforeConfigure(t *testing.T) {
	f := setup(t)
	err := f.device.UpdateTruthTable(context.Background())
	assert.Equal(t, http.StatusConflict, statusCode(t, err))
}

func TestDevice_RejectsTooManyInputs(t *testing.T) {
	f := setup(t)
	err := f.device.SetExperiment(context.Background(), domain.ExperimentConfig{NumInputs: 40, NumOutputs: 1})
	assert.Equal(t, http.StatusUnprocessableEntity, statusCode(t, err))
}

func TestDevice_InputLimitBoundary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.device.SetExperiment(ctx, domain.ExperimentConfig{NumInputs: domain.DefaultMaxInputs, NumOutputs: 1}))

	err := f.device.SetExperiment(ctx, domain.ExperimentConfig{NumInputs: domain.DefaultMaxInputs + 1, NumOutputs: 1})
	assert.Equal(t, http.StatusUnprocessableEntity, statusCode(t, err))
	assert.ErrorContains(t, err, domain.ErrTooManyInputs.Error())

	err = f.device.SetExperiment(ctx, domain.ExperimentConfig{NumInputs: -1, NumOutputs: 1})
	assert.Equal(t, http.StatusUnprocessableEntity, statusCode(t, err))

	got, ok := f.sim.ExperimentConfig()
	require.True(t, ok)
	assert.Equal(t, domain.DefaultMaxInputs, got.NumInputs, "rejected configs leave the last good one armed")
}

func TestDevice_UnknownModule(t *testing.T) {
	f := setup(t)
	err := f.device.SetModule(context.Background(), domain.ModuleConfig{Module: 9})
	assert.Equal(t, http.StatusUnprocessableEntity, statusCode(t, err))
}

func TestDevice_RelaysLoopBackToInputs(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.device.SetRelay(ctx, 1, true))
	require.NoError(t, f.device.SetRelay(ctx, 8, true))

	in, err := f.device.Inputs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0, 0, 0, 0, 0, 1}, in)
	assert.True(t, f.sim.Relays()[0])

	require.NoError(t, f.device.SetRelay(ctx, 1, false))
	assert.False(t, f.sim.Relays()[0])
}

func TestValidation_RelayOutOfRange(t *testing.T) {
	f := setup(t)
	err := f.device.SetRelay(context.Background(), 9, true)
	assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
}

func TestValidation_WrongContentType(t *testing.T) {
	f := setup(t)
	resp, err := http.Post(f.srv.URL+"/set_experiment", "application/json", strings.NewReader(`{"config":"{}"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidation_MissingConfigField(t *testing.T) {
	f := setup(t)
	resp, err := http.Post(f.srv.URL+"/set_module", "application/x-www-form-urlencoded", strings.NewReader("module=1"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBackend_LoginAndDescriptor(t *testing.T) {
	f := setup(t, simulator.WithUser("5025@student.its.ac.id", "password1"))
	ctx := context.Background()

	_, err := f.backend.Experiment(ctx, 5)
	assert.Equal(t, http.StatusUnauthorized, statusCode(t, err))

	_, err = f.backend.Login(ctx, domain.Login{StudentID: "5025", Password: "wrongpass"})
	assert.Equal(t, http.StatusUnauthorized, statusCode(t, err))

	creds, err := f.backend.Login(ctx, domain.Login{StudentID: "5025", Password: "password1"})
	require.NoError(t, err)
	require.NotEmpty(t, creds.Token)
	f.token = creds.Token

	exp, err := f.backend.Experiment(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, exp.ID)
	assert.Equal(t, 3, exp.Inputs)
	assert.Equal(t, []string{"a", "b", "c"}, exp.InputLabels)

	_, err = f.backend.Experiment(ctx, 99)
	assert.Equal(t, http.StatusNotFound, statusCode(t, err))
}

func TestBackend_PluralDescriptorPath(t *testing.T) {
	f := setup(t)
	b, err := client.NewBackendClient(f.srv.URL+"/api/",
		client.WithDescriptorPath("experiments"),
		client.WithTokenSource(func(context.Context) (string, error) { return f.sim.IssueToken(0), nil }),
	)
	require.NoError(t, err)

	exp, err := b.Experiment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, exp.ID)
}

func TestBackend_Authenticate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.device.SetModule(ctx, domain.ModuleConfig{Module: 3}))

	creds, err := f.backend.Authenticate(ctx, "practicum")
	require.NoError(t, err)
	assert.NotEmpty(t, creds.Token)
	assert.Equal(t, 3, creds.Module)
}

func TestBackend_Submit(t *testing.T) {
	f := setup(t)
	f.token = f.sim.IssueToken(0)
	ctx := context.Background()

	sub := domain.Submission{ExperimentID: 2, TruthTable: [][]string{{"0"}, {"1"}}}
	require.NoError(t, f.backend.Submit(ctx, sub))
	assert.Equal(t, []domain.Submission{sub}, f.sim.Submissions())

	err := f.backend.Submit(ctx, domain.Submission{ExperimentID: 2, TruthTable: [][]string{}})
	assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
}

func TestFailureInjection(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.sim.Fail(http.MethodPost, "/set_experiment", http.StatusServiceUnavailable)
	err := f.device.SetExperiment(ctx, domain.ExperimentConfig{NumInputs: 1, NumOutputs: 1})
	assert.Equal(t, http.StatusServiceUnavailable, statusCode(t, err))

	f.sim.Recover(http.MethodPost, "/set_experiment")
	assert.NoError(t, f.device.SetExperiment(ctx, domain.ExperimentConfig{NumInputs: 1, NumOutputs: 1}))
}

func TestServesOpenAPIDocument(t *testing.T) {
	f := setup(t)
	resp, err := http.Get(f.srv.URL + "/openapi.yaml")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(simulator.Spec()), "/update_truth_table")
}

func TestDefaultTruth(t *testing.T) {
	assert.Equal(t, []string{"0", "0"}, simulator.DefaultTruth(domain.Row{"0", "0"}, 2))
	assert.Equal(t, []string{"1", "1"}, simulator.DefaultTruth(domain.Row{"0", "1"}, 2))
	assert.Equal(t, []string{"1", "0"}, simulator.DefaultTruth(domain.Row{"1", "1", "1"}, 2))
	assert.Empty(t, simulator.DefaultTruth(domain.Row{"1"}, 0))
}
