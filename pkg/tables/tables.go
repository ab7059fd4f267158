// Package tables decodes markdown pipe tables embedded in model output.
package tables

import (
	"strings"

	"github.com/menta2k/drawing-analyzer/pkg/types"
)

var bomWords = []string{"item", "qty", "part", "description"}

// Parse returns every complete table in text, in document order. A table is a
// header row, a separator row directly below it and at least one body row.
// Anything less is not emitted.
func Parse(text string) []types.ExtractedTable {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var out []types.ExtractedTable
	for i := 0; i+2 < len(lines); i++ {
		if !isRow(lines[i]) || !isSeparator(lines[i+1]) || !isRow(lines[i+2]) {
			continue
		}

		headers := splitCells(lines[i])
		table := types.ExtractedTable{
			Headers:   headers,
			Rows:      []types.TableRow{},
			TableType: Classify(headers),
		}

		j := i + 2
		for ; j < len(lines) && isRow(lines[j]); j++ {
			cells := splitCells(lines[j])
			if len(cells) == 0 {
				continue
			}
			table.Rows = append(table.Rows, types.TableRow{Cells: cells, RowNumber: j - i - 2})
		}

		out = append(out, table)
		i = j - 1
	}
	return out
}

// Classify reports bom when the header vocabulary names parts, else general
func Classify(headers []string) types.TableType {
	joined := strings.ToLower(strings.Join(headers, " "))
	for _, w := range bomWords {
		if strings.Contains(joined, w) {
			return types.TableBOM
		}
	}
	return types.TableGeneral
}

// isRow reports whether the line is a pipe-delimited row: it starts and ends
// with a pipe and has content between them
func isRow(line string) bool {
	line = strings.TrimSpace(line)
	return len(line) >= 3 && line[0] == '|' && line[len(line)-1] == '|'
}

// isSeparator reports whether the line is made only of dashes, colons, pipes
// and spaces, with at least one dash
func isSeparator(line string) bool {
	if !isRow(line) || !strings.Contains(line, "-") {
		return false
	}
	for _, r := range strings.TrimSpace(line) {
		switch r {
		case '-', ':', '|', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

func splitCells(line string) []string {
	var cells []string
	for _, c := range strings.Split(strings.TrimSpace(line), "|") {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}
