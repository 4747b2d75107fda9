package truthtable

import (
	"strings"

	"github.com/aretw0/telelab/pkg/domain"
)

// Render formats paired rows as a Markdown table headed by the experiment labels.
// Missing output cells are shown as "-".
func Render(exp domain.Experiment, rows []domain.PairedRow) string {
	exp = exp.WithDefaultLabels()
	var b strings.Builder

	if exp.Name != "" {
		b.WriteString("### " + exp.Name + "\n\n")
	}

	header := append(append([]string{}, exp.InputLabels...), exp.OutputLabels...)
	if len(header) == 0 {
		return b.String()
	}

	writeRow(&b, header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = ":-:"
	}
	writeRow(&b, sep)

	for _, r := range rows {
		cells := append([]string{}, r.Input...)
		for col := 0; col < exp.Outputs; col++ {
			if col < len(r.Output) {
				cells = append(cells, r.Output[col])
			} else {
				cells = append(cells, "-")
			}
		}
		writeRow(&b, cells)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}
