package contracts

// Grid is a ragged sheet of cell values, row-major, zero-based
// ⭐ SSOT: 설정 워크북과 결과 워크북은 모두 Grid로 표현
type Grid [][]string

// Cell returns the value at (row, col) or "" when out of range
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// Rows returns the number of rows
func (g Grid) Rows() int {
	return len(g)
}

// Cols returns the width of the widest row
func (g Grid) Cols() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Clone returns a deep copy
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Resize returns a rectangular copy with exactly rows x cols cells
func (g Grid) Resize(rows, cols int) Grid {
	out := make(Grid, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]string, cols)
		if r < len(g) {
			copy(out[r], g[r])
		}
	}
	return out
}

// Column returns the values of col from row start downward, trailing blanks trimmed
func (g Grid) Column(col, start int) []string {
	var values []string
	for r := start; r < len(g); r++ {
		values = append(values, g.Cell(r, col))
	}
	for len(values) > 0 && values[len(values)-1] == "" {
		values = values[:len(values)-1]
	}
	return values
}
