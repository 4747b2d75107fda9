package truthtable

import (
	"github.com/aretw0/telelab/pkg/domain"
)

// Pair joins inputs and device outputs by row index.
//
// Every input row is returned; rows without a matching output are marked incomplete.
// When outputs are present but their shape differs from the input table, the rows
// are still returned together with a *domain.AlignmentError describing the first problem.
func Pair(inputs []domain.Row, outputs [][]string, width int) ([]domain.PairedRow, error) {
	rows := make([]domain.PairedRow, len(inputs))
	var alignErr *domain.AlignmentError

	for i, in := range inputs {
		rows[i] = domain.PairedRow{Index: i, Input: in}
		if i >= len(outputs) {
			continue
		}
		out := outputs[i]
		rows[i].Output = append([]string(nil), out...)
		rows[i].Complete = len(out) == width
		if len(out) != width && alignErr == nil {
			alignErr = &domain.AlignmentError{
				InputRows:   len(inputs),
				OutputRows:  len(outputs),
				Outputs:     width,
				BadRowIndex: i,
				BadRowWidth: len(out),
			}
		}
	}

	if len(outputs) > 0 && len(outputs) != len(inputs) {
		alignErr = &domain.AlignmentError{
			InputRows:   len(inputs),
			OutputRows:  len(outputs),
			Outputs:     width,
			BadRowIndex: -1,
		}
	}

	if alignErr != nil {
		return rows, alignErr
	}
	return rows, nil
}
