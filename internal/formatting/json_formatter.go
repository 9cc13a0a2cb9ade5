package formatting

import (
	"fmt"
	"io"
)

// JSONFormatter provides JSON output formatting
type JSONFormatter struct {
	options Options
	out     io.Writer
}

// Format writes t as an indented JSON array of records.
func (f *JSONFormatter) Format(t Table) error {
	_, err := fmt.Fprintln(f.out, PrettyJSON(t.Records()))
	return err
}
