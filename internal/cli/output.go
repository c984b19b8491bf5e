package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"sigs.k8s.io/yaml"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists the accepted values of --output
var Formats = []string{FormatTable, FormatJSON, FormatYAML}

// Output formats command results
type Output struct {
	format string
	w      io.Writer // data
	errW   io.Writer // messages
}

// NewOutput returns an Output writing data to w and messages to errW
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

func validFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return usageErrorf("invalid output format %q, must be one of %s", format, strings.Join(Formats, ", "))
}

// Structured reports whether data is printed as JSON or YAML
func (o *Output) Structured() bool {
	return o.format == FormatJSON || o.format == FormatYAML
}

// Print writes a table, or data as JSON/YAML when requested
func (o *Output) Print(headers []string, rows [][]string, data any) error {
	if o.Structured() {
		return o.Data(data)
	}
	o.Table(headers, rows)
	return nil
}

// Lines writes one line per entry, or data as JSON/YAML when requested
func (o *Output) Lines(lines []string, data any) error {
	if o.Structured() {
		return o.Data(data)
	}
	for _, l := range lines {
		fmt.Fprintln(o.w, l)
	}
	return nil
}

// Data writes v as YAML with --output yaml and as JSON otherwise
func (o *Output) Data(v any) error {
	if o.format == FormatYAML {
		return o.YAML(v)
	}
	return o.JSON(v)
}

// Table writes rows aligned with tabwriter
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON writes v as indented JSON
func (o *Output) JSON(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML using its JSON field names
func (o *Output) YAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	_, err = o.w.Write(data)
	return err
}

// Text writes s followed by a newline to stdout
func (o *Output) Text(s string) {
	fmt.Fprintln(o.w, s)
}

// Success writes a status message to stderr
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error writes an error message to stderr
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}
