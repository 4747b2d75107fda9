package mcp_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/aretw0/telelab/pkg/adapters/mcp"
	"github.com/aretw0/telelab/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkflow struct {
	id     int
	status domain.Status
	calls  []string
	err    error
	closed bool
}

func (w *fakeWorkflow) op(name string, to domain.Status) error {
	w.calls = append(w.calls, name)
	if w.err != nil {
		return w.err
	}
	w.status = to
	return nil
}

func (w *fakeWorkflow) Setup(context.Context) error   { return w.op("setup", domain.StatusConfigured) }
func (w *fakeWorkflow) Start(context.Context) error   { return w.op("start", domain.StatusPolling) }
func (w *fakeWorkflow) Restart(context.Context) error { return w.op("restart", domain.StatusConfigured) }
func (w *fakeWorkflow) Send(context.Context) error    { return w.op("send", w.status) }
func (w *fakeWorkflow) Close() error                  { w.closed = true; return nil }

func (w *fakeWorkflow) Snapshot() domain.Snapshot {
	return domain.Snapshot{Experiment: domain.Experiment{ID: w.id}, Status: w.status}
}

type fakeRelays struct {
	state [domain.RelayCount]bool
	err   error
}

func (r *fakeRelays) Toggle(ctx context.Context, relay int) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	r.state[relay-1] = !r.state[relay-1]
	return r.state[relay-1], nil
}

func (r *fakeRelays) Relays() []bool { return r.state[:] }

type harness struct {
	srv    *adapter.Server
	opened []*fakeWorkflow
	tools  map[string]server.ServerTool
}

func newHarness(t *testing.T, opts ...adapter.Option) *harness {
	t.Helper()
	h := &harness{tools: make(map[string]server.ServerTool)}
	h.srv = adapter.NewServer(func(ctx context.Context, id int) (adapter.Workflow, error) {
		if id == 99 {
			return nil, domain.ErrUnknownSelection
		}
		wf := &fakeWorkflow{id: id, status: domain.StatusUnconfigured}
		h.opened = append(h.opened, wf)
		return wf, nil
	}, opts...)
	for _, tool := range h.srv.Tools() {
		h.tools[tool.Tool.Name] = tool
	}
	return h
}

func (h *harness) call(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool, ok := h.tools[name]
	require.True(t, ok, "tool %s not registered", name)
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestTools_Registered(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"list_modules", "open_experiment", "setup_device", "start_polling", "restart", "send_results", "get_snapshot"} {
		assert.Contains(t, h.tools, name)
	}
	assert.NotContains(t, h.tools, "toggle_relay", "relay tool needs WithRelays")
}

func TestListModules(t *testing.T) {
	h := newHarness(t)
	res := h.call(t, "list_modules", nil)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), `"experiments":[16,17,18]`)
}

func TestOperationsRequireOpenExperiment(t *testing.T) {
	h := newHarness(t)
	res := h.call(t, "setup_device", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), adapter.ErrNoWorkflow.Error())
}

func TestWorkflowTools(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "open_experiment", map[string]any{"experiment": 4})
	require.False(t, res.IsError, text(t, res))
	require.Len(t, h.opened, 1)

	res = h.call(t, "setup_device", nil)
	require.False(t, res.IsError)
	snap, ok := res.StructuredContent.(domain.Snapshot)
	require.True(t, ok)
	assert.Equal(t, domain.StatusConfigured, snap.Status)

	h.call(t, "start_polling", nil)
	h.call(t, "send_results", nil)
	h.call(t, "restart", nil)
	assert.Equal(t, []string{"setup", "start", "send", "restart"}, h.opened[0].calls)

	res = h.call(t, "get_snapshot", nil)
	snap = res.StructuredContent.(domain.Snapshot)
	assert.Equal(t, 4, snap.Experiment.ID)
}

func TestOpenExperiment_ReplacesPrevious(t *testing.T) {
	h := newHarness(t)
	h.call(t, "open_experiment", map[string]any{"experiment": 1})
	h.call(t, "open_experiment", map[string]any{"experiment": 2})

	require.Len(t, h.opened, 2)
	assert.True(t, h.opened[0].closed)
	assert.False(t, h.opened[1].closed)

	require.NoError(t, h.srv.Close())
	assert.True(t, h.opened[1].closed)
}

func TestOpenExperiment_FailureKeepsCurrent(t *testing.T) {
	h := newHarness(t)
	h.call(t, "open_experiment", map[string]any{"experiment": 1})

	res := h.call(t, "open_experiment", map[string]any{"experiment": 99})
	assert.True(t, res.IsError)
	assert.False(t, h.opened[0].closed)
}

func TestOperationError(t *testing.T) {
	h := newHarness(t)
	h.call(t, "open_experiment", map[string]any{"experiment": 1})
	h.opened[0].err = domain.ErrInvalidTransition

	res := h.call(t, "start_polling", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), domain.ErrInvalidTransition.Error())
}

func TestToggleRelay(t *testing.T) {
	relays := &fakeRelays{}
	h := newHarness(t, adapter.WithRelays(relays))

	res := h.call(t, "toggle_relay", map[string]any{"relay": float64(3)})
	assert.False(t, res.IsError)
	assert.Equal(t, "relay 3 is on", text(t, res))
	assert.True(t, relays.state[2])

	res = h.call(t, "toggle_relay", nil)
	assert.True(t, res.IsError)

	relays.err = errors.New("device offline")
	res = h.call(t, "toggle_relay", map[string]any{"relay": 3})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "device offline")
}
