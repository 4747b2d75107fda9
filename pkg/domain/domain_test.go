package domain_test

import (
	"testing"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := domain.DefaultCatalog()
	require.Len(t, c.Modules, 6)

	m, ok := c.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, []int{16, 17, 18}, m.Experiments)

	assert.NoError(t, c.Check(0, 1))
	assert.NoError(t, c.Check(3, 12))
	assert.ErrorIs(t, c.Check(0, 4), domain.ErrUnknownSelection)
	assert.ErrorIs(t, c.Check(6, 19), domain.ErrUnknownSelection)
	assert.ErrorIs(t, c.Check(1, 0), domain.ErrUnknownSelection)
	assert.True(t, c.Contains(5, 18))
	assert.False(t, c.Contains(5, 1))
}

func TestLogin_Validate(t *testing.T) {
	assert.NoError(t, domain.Login{StudentID: "502421234", Password: "secret123"}.Validate())
	assert.ErrorIs(t, domain.Login{StudentID: "5", Password: "secret123"}.Validate(), domain.ErrInvalidLogin)
	assert.ErrorIs(t, domain.Login{StudentID: "502421234", Password: "short"}.Validate(), domain.ErrInvalidLogin)
}

func TestLogin_Email(t *testing.T) {
	assert.Equal(t, "502421234@student.its.ac.id", domain.Login{StudentID: " 502421234 "}.Email())
	assert.Equal(t, "a@b.c", domain.Login{StudentID: "a@b.c"}.Email())
}

func TestExperiment_DefaultLabelsAndValidate(t *testing.T) {
	exp := domain.Experiment{ID: 7, Inputs: 4, Outputs: 2}
	assert.Error(t, exp.Validate(), "labels are required before defaults are applied")

	exp = exp.WithDefaultLabels()
	assert.Equal(t, []string{"a", "b", "c", "d"}, exp.InputLabels)
	assert.Equal(t, []string{"p", "q"}, exp.OutputLabels)
	assert.NoError(t, exp.Validate())

	assert.Equal(t, domain.ExperimentConfig{NumInputs: 4, NumOutputs: 2, NumExperiments: 7}, exp.Config())

	bad := domain.Experiment{Inputs: -1}
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidInputCount)
}

func TestStatus_Configured(t *testing.T) {
	assert.False(t, domain.StatusUnconfigured.Configured())
	assert.True(t, domain.StatusConfigured.Configured())
	assert.True(t, domain.StatusPolling.Configured())
}
