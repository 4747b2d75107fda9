package truthtable

import (
	"fmt"
	"iter"

	"github.com/aretw0/telelab/pkg/domain"
)

// Generator produces binary input combinations.
type Generator struct {
	maxInputs int
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxInputs overrides the largest accepted input count.
func WithMaxInputs(n int) Option {
	return func(g *Generator) {
		g.maxInputs = n
	}
}

// New creates a Generator bounded by domain.DefaultMaxInputs unless overridden.
func New(opts ...Option) *Generator {
	g := &Generator{maxInputs: domain.DefaultMaxInputs}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxInputs returns the configured bound.
func (g *Generator) MaxInputs() int {
	return g.maxInputs
}

// Check validates an input count without generating anything.
func (g *Generator) Check(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidInputCount, n)
	}
	if n > g.maxInputs {
		return fmt.Errorf("%w: %d exceeds limit of %d", domain.ErrTooManyInputs, n, g.maxInputs)
	}
	return nil
}

// Combinations returns the 2^n rows in ascending numeric order, most significant bit first.
// The sequence is restartable: every range starts again from row 0.
// For n == 0 it yields a single empty row.
func (g *Generator) Combinations(n int) (iter.Seq2[int, domain.Row], error) {
	if err := g.Check(n); err != nil {
		return nil, err
	}
	total := 1 << n
	return func(yield func(int, domain.Row) bool) {
		for i := 0; i < total; i++ {
			if !yield(i, row(i, n)) {
				return
			}
		}
	}, nil
}

// Generate materializes all combinations.
func (g *Generator) Generate(n int) ([]domain.Row, error) {
	seq, err := g.Combinations(n)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.Row, 0, 1<<n)
	for _, r := range seq {
		rows = append(rows, r)
	}
	return rows, nil
}

func row(value, width int) domain.Row {
	r := make(domain.Row, width)
	for bit := 0; bit < width; bit++ {
		if value&(1<<(width-1-bit)) != 0 {
			r[bit] = "1"
		} else {
			r[bit] = "0"
		}
	}
	return r
}

var defaultGenerator = New()

// Combinations uses a Generator with default limits.
func Combinations(n int) (iter.Seq2[int, domain.Row], error) {
	return defaultGenerator.Combinations(n)
}

// Check uses a Generator with default limits.
func Check(n int) error {
	return defaultGenerator.Check(n)
}

// Generate uses a Generator with default limits.
func Generate(n int) ([]domain.Row, error) {
	return defaultGenerator.Generate(n)
}
