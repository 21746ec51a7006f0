// human.go — Human-readable output formatter.
// Produces pretty, colored output for terminal use.
package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	okLabel  = color.New(color.FgGreen, color.Bold).Sprint("[OK]")
	errLabel = color.New(color.FgRed, color.Bold).Sprint("[Error]")
)

// HumanFormatter produces human-readable output.
type HumanFormatter struct{}

// Format writes a human-readable representation of the result.
func (h *HumanFormatter) Format(w Writer, result *Result) error {
	var sb strings.Builder

	if result.Success {
		sb.WriteString(fmt.Sprintf("%s %s\n", okLabel, result.Command))
	} else {
		sb.WriteString(fmt.Sprintf("%s %s\n", errLabel, result.Command))
		if result.Error != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", result.Error))
		}
	}

	if result.Text != "" {
		sb.WriteString("\n")
		sb.WriteString(result.Text)
		if !strings.HasSuffix(result.Text, "\n") {
			sb.WriteString("\n")
		}
	}

	if result.Data != nil && result.Text == "" {
		for k, v := range result.Data {
			sb.WriteString(fmt.Sprintf("   %s: %v\n", k, v))
		}
	}

	_, err := w.Write([]byte(sb.String()))
	return err
}
