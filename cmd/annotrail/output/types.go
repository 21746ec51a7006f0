// types.go — Shared types for output formatting.
package output

// Result represents the outcome of a CLI command execution.
type Result struct {
	Success bool           `json:"success"`
	Command string         `json:"command"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Text    string         `json:"-"` // Pre-rendered human text (not serialized in JSON)
	Usage   bool           `json:"-"` // True when the failure is a usage error
}

// Formatter is the interface for all output formatters.
type Formatter interface {
	Format(w Writer, result *Result) error
}

// Writer is a minimal write interface (matches io.Writer).
type Writer interface {
	Write(p []byte) (n int, err error)
}

// GetFormatter returns the formatter for a configured format name.
// Unknown names fall back to human output.
func GetFormatter(format string) Formatter {
	if format == "json" {
		return &JSONFormatter{}
	}
	return &HumanFormatter{}
}
