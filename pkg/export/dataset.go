package export

// Field is a labelled value printed above a table.
type Field struct {
	Label string
	Value string
}

// Dataset defines tabular export content. Summary fields are rendered before
// the table by formats that support a preamble.
type Dataset struct {
	Title   string
	Summary []Field
	Headers []string
	Rows    [][]string
}
