package formatting

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
	out     io.Writer
}

// Format writes t as a YAML sequence of records.
func (f *YAMLFormatter) Format(t Table) error {
	enc := yaml.NewEncoder(f.out)
	enc.SetIndent(2)
	if err := enc.Encode(t.Records()); err != nil {
		return err
	}
	return enc.Close()
}
