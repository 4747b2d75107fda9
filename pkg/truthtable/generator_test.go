package truthtable_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/aretw0/telelab/pkg/truthtable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Properties(t *testing.T) {
	for n := 0; n <= 8; n++ {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			rows, err := truthtable.Generate(n)
			require.NoError(t, err)
			require.Len(t, rows, 1<<n)

			for i, r := range rows {
				assert.Len(t, r, n)
				if n > 0 {
					v, err := strconv.ParseInt(r.String(), 2, 64)
					require.NoError(t, err)
					assert.Equal(t, int64(i), v, "row %d out of order", i)
				}
			}
			assert.Equal(t, strings.Repeat("0", n), rows[0].String())
			assert.Equal(t, strings.Repeat("1", n), rows[len(rows)-1].String())
		})
	}
}

func TestGenerate_Zero(t *testing.T) {
	rows, err := truthtable.Generate(0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0])
}

func TestGenerate_Three(t *testing.T) {
	rows, err := truthtable.Generate(3)
	require.NoError(t, err)

	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.String()
	}
	assert.Equal(t, []string{"000", "001", "010", "011", "100", "101", "110", "111"}, got)
}

func TestCombinations_RestartableAndLazy(t *testing.T) {
	seq, err := truthtable.Combinations(4)
	require.NoError(t, err)

	count := 0
	for i, r := range seq {
		if i == 2 {
			assert.Equal(t, "0010", r.String())
			break
		}
		count++
	}
	assert.Equal(t, 2, count)

	// A second range starts over from the first row.
	for i, r := range seq {
		assert.Equal(t, 0, i)
		assert.Equal(t, "0000", r.String())
		break
	}
}

func TestGenerator_Limits(t *testing.T) {
	g := truthtable.New(truthtable.WithMaxInputs(4))
	assert.Equal(t, 4, g.MaxInputs())

	_, err := g.Generate(5)
	assert.ErrorIs(t, err, domain.ErrTooManyInputs)

	_, err = g.Combinations(-1)
	assert.ErrorIs(t, err, domain.ErrInvalidInputCount)

	_, err = truthtable.Generate(domain.DefaultMaxInputs + 1)
	assert.ErrorIs(t, err, domain.ErrTooManyInputs)
}

func TestCheck_DefaultLimit(t *testing.T) {
	assert.NoError(t, truthtable.Check(0))
	assert.NoError(t, truthtable.Check(domain.DefaultMaxInputs))
	assert.ErrorIs(t, truthtable.Check(domain.DefaultMaxInputs+1), domain.ErrTooManyInputs)
	assert.ErrorIs(t, truthtable.Check(-1), domain.ErrInvalidInputCount)
}
