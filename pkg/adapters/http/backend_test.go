package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, handler http.HandlerFunc, opts ...Option) *BackendClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	b, err := NewBackendClient(srv.URL+"/api/", opts...)
	require.NoError(t, err)
	return b
}

func TestBackendClient_Authenticate(t *testing.T) {
	var body map[string]string
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/authenticate", r.URL.Path)
		assert.Equal(t, contentTypeJSON, r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"credentials":"tok-1","module":2}`))
	})

	creds, err := b.Authenticate(context.Background(), "practicum-key")
	require.NoError(t, err)
	assert.Equal(t, domain.Credentials{Token: "tok-1", Module: 2}, creds)
	assert.Equal(t, "practicum-key", body["credentials"])
}

func TestBackendClient_Login(t *testing.T) {
	var body map[string]string
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"data":"tok-2"}`))
	})

	creds, err := b.Login(context.Background(), domain.Login{StudentID: "5025211000", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "tok-2", creds.Token)
	assert.Equal(t, "5025211000@student.its.ac.id", body["email"])
	assert.Equal(t, "hunter22", body["password"])
	assert.Equal(t, "hunter22", body["password_confirmation"])
}

func TestBackendClient_Login_InvalidSkipsRequest(t *testing.T) {
	called := false
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := b.Login(context.Background(), domain.Login{StudentID: "x", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrInvalidLogin)
	assert.False(t, called)
}

func TestDecodeCredentials(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.Credentials
	}{
		{"data string", `{"data":"abc"}`, domain.Credentials{Token: "abc"}},
		{"data object", `{"data":{"token":"abc","module_num":4}}`, domain.Credentials{Token: "abc", Module: 4}},
		{"top level", `{"credentials":"abc","module":"1"}`, domain.Credentials{Token: "abc", Module: 1}},
		{"structured credentials", `{"credentials":{"id":7},"module":0}`, domain.Credentials{Token: `{"id":7}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeCredentials([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCredentials_Missing(t *testing.T) {
	for _, body := range []string{`{}`, `{"module":1}`, `[]`, `{"data":{"data":{"data":"x"}}}`} {
		_, err := decodeCredentials([]byte(body))
		assert.ErrorIs(t, err, domain.ErrMalformedResponse, body)
	}
}

func TestBackendClient_Experiment(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/experiment/7", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":{"id":7,"name":"Half adder","num_inputs":2,"num_outputs":2,"output_labels":["S","C"]}}`))
	}, WithTokenSource(func(context.Context) (string, error) { return "tok", nil }))

	exp, err := b.Experiment(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, domain.Experiment{
		ID:           7,
		Name:         "Half adder",
		Inputs:       2,
		Outputs:      2,
		InputLabels:  []string{"a", "b"},
		OutputLabels: []string{"S", "C"},
	}, exp)
}

func TestBackendClient_Experiment_PluralPath(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/experiments/3", r.URL.Path)
		_, _ = w.Write([]byte(`{"inputs":3,"outputs":1}`))
	}, WithDescriptorPath("experiments"))

	exp, err := b.Experiment(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, exp.ID)
	assert.Equal(t, 3, exp.Inputs)
	assert.Equal(t, []string{"p"}, exp.OutputLabels)
}

func TestBackendClient_Experiment_Malformed(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"no counts"}`))
	})

	_, err := b.Experiment(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestBackendClient_Experiment_LabelMismatch(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"inputs":2,"outputs":1,"input_labels":["a"]}`))
	})

	_, err := b.Experiment(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestBackendClient_Submit(t *testing.T) {
	var got domain.Submission
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/experiment/5", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	sub := domain.Submission{ExperimentID: 5, TruthTable: [][]string{{"1"}, {"0"}}}
	require.NoError(t, b.Submit(context.Background(), sub))
	assert.Equal(t, sub, got)
}

func TestBackendClient_NoTokenNoHeader(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"inputs":1,"outputs":1}`))
	}, WithTokenSource(func(context.Context) (string, error) { return "", nil }))

	_, err := b.Experiment(context.Background(), 1)
	require.NoError(t, err)
}

func TestBackendClient_TokenSourceError(t *testing.T) {
	called := false
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, WithTokenSource(func(context.Context) (string, error) { return "", domain.ErrUnauthenticated }))

	err := b.Submit(context.Background(), domain.Submission{ExperimentID: 1})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.False(t, called)
}
