package cli

import (
	"github.com/fatih/color"

	"github.com/example/caseflow/internal/core/complaint"
)

// FormatError renders an error for the terminal, prefixing workflow errors
// with a label for their kind.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	switch complaint.KindOf(err) {
	case complaint.KindNotFound, complaint.KindParentNotFound:
		return red.Sprint("not found: ") + err.Error()
	case complaint.KindInvalidTransition:
		return yellow.Sprint("invalid transition: ") + err.Error()
	case complaint.KindDuplicateStage:
		return yellow.Sprint("already created: ") + err.Error()
	case complaint.KindParentMismatch:
		return red.Sprint("wrong parent: ") + err.Error()
	case complaint.KindForbidden:
		return red.Sprint("forbidden: ") + err.Error()
	}
	return red.Sprint("error: ") + err.Error()
}
