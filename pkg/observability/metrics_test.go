package observability_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *observability.Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStateChange(ctx, &domain.StateEvent{From: domain.StatusUnconfigured, To: domain.StatusConfigured})
	hooks.OnPoll(ctx, &domain.PollEvent{Rows: 4, Duration: 20 * time.Millisecond})
	hooks.OnPoll(ctx, &domain.PollEvent{Err: errors.New("timeout")})
	hooks.OnNotify(ctx, &domain.NotifyEvent{Operation: "setup"})
	hooks.OnSubmit(ctx, &domain.SubmitEvent{Rows: 4})
	hooks.OnSubmit(ctx, &domain.SubmitEvent{Err: errors.New("bad gateway")})

	out := scrape(t, m)
	assert.Contains(t, out, `telelab_workflow_transitions_total{from="unconfigured",to="configured"} 1`)
	assert.Contains(t, out, `telelab_truth_table_polls_total{outcome="ok"} 1`)
	assert.Contains(t, out, `telelab_truth_table_polls_total{outcome="error"} 1`)
	assert.Contains(t, out, `telelab_truth_table_rows 4`)
	assert.Contains(t, out, `telelab_notifications_total{operation="setup"} 1`)
	assert.Contains(t, out, `telelab_submissions_total{outcome="ok"} 1`)
	assert.Contains(t, out, `telelab_submissions_total{outcome="error"} 1`)
	assert.Contains(t, out, `telelab_truth_table_poll_duration_seconds_count 2`)
}

func TestMetrics_Registered(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnNotify(context.Background(), &domain.NotifyEvent{Operation: "send"})

	n, err := testutil.GatherAndCount(m.Registry(), "telelab_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	hooks := observability.LogHooks(logger)
	ctx := context.Background()

	hooks.OnStateChange(ctx, &domain.StateEvent{
		EventBase: domain.EventBase{WorkflowID: "wf-1"},
		From:      domain.StatusConfigured,
		To:        domain.StatusPolling,
	})
	hooks.OnPoll(ctx, &domain.PollEvent{Rows: 2})
	hooks.OnNotify(ctx, &domain.NotifyEvent{Operation: "start", Message: "device busy"})

	out := buf.String()
	assert.Contains(t, out, "msg=state_change")
	assert.Contains(t, out, "workflow_id=wf-1")
	assert.Contains(t, out, "to=polling")
	assert.NotContains(t, out, "msg=poll ", "polls are debug level")
	assert.Contains(t, out, `message="device busy"`)
}
