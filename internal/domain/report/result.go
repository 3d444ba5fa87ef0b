package report

// MaxRows caps how many rows a single run returns.
const MaxRows = 10000

// PreviewRows is how many rows the report email shows inline.
const PreviewRows = 5

// Result is a materialised report run. Cells are pre-formatted strings.
type Result struct {
	Columns   []string
	Rows      [][]string
	Truncated bool
}

// Preview returns at most n leading rows.
func (r *Result) Preview(n int) [][]string {
	if r == nil || n <= 0 {
		return nil
	}
	if len(r.Rows) < n {
		n = len(r.Rows)
	}
	return r.Rows[:n]
}

func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}
