package metrics

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// String renders the report as an aligned text table in the usual
// precision/recall/f1-score/support layout.
func (r Report) String() string {
	header := []string{"", "precision", "recall", "f1-score", "support"}
	rows := make([][]string, 0, len(r.Classes)+4)
	for _, cs := range r.Classes {
		rows = append(rows, scoreRow(cs))
	}
	rows = append(rows, nil)
	rows = append(rows, []string{"accuracy", "", "", fmt.Sprintf("%.2f", r.Accuracy), fmt.Sprint(r.Total)})
	rows = append(rows, scoreRow(r.MacroAvg))
	rows = append(rows, scoreRow(r.WeightedAvg))
	return renderTable(header, rows)
}

// ConfusionString renders the confusion matrix with true labels as rows.
func (r Report) ConfusionString() string {
	header := make([]string, 0, len(r.Classes)+1)
	header = append(header, "")
	for _, cs := range r.Classes {
		header = append(header, cs.Name)
	}
	rows := make([][]string, 0, len(r.Confusion))
	for i, counts := range r.Confusion {
		row := make([]string, 0, len(counts)+1)
		if i < len(r.Classes) {
			row = append(row, r.Classes[i].Name)
		} else {
			row = append(row, fmt.Sprint(i))
		}
		for _, n := range counts {
			row = append(row, fmt.Sprint(n))
		}
		rows = append(rows, row)
	}
	return renderTable(header, rows)
}

func scoreRow(cs ClassScore) []string {
	return []string{
		cs.Name,
		fmt.Sprintf("%.2f", cs.Precision),
		fmt.Sprintf("%.2f", cs.Recall),
		fmt.Sprintf("%.2f", cs.F1),
		fmt.Sprint(cs.Support),
	}
}

// renderTable left-aligns the first column and right-aligns the rest.
// A nil row renders as a blank line.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	measure := func(row []string) {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		if row == nil {
			sb.WriteString("\n")
			return
		}
		var line strings.Builder
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			padding := strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell))
			if i == 0 {
				line.WriteString(cell + padding)
			} else {
				line.WriteString("  " + padding + cell)
			}
		}
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteString("\n")
	}

	writeRow(header)
	sb.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}
