package schema

import (
	"fmt"
	"strings"
)

// ValidationSeverity is either SeverityError or SeverityWarning.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue is one validation finding, located by a path such as
// "rules[2].when" or the JSON pointer "/rules/2/when".
type ValidationIssue struct {
	Path     string             `json:"path"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Severity ValidationSeverity `json:"severity"`
}

func (i ValidationIssue) String() string {
	return i.Path + ": " + i.Message
}

// ValidationResult collects findings in the order they were found.
type ValidationResult struct {
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// Errorf records an error at path.
func (r *ValidationResult) Errorf(path, code, format string, args ...any) {
	r.add(SeverityError, path, code, fmt.Sprintf(format, args...))
}

// Warnf records a warning at path. Warnings never make a rule set invalid.
func (r *ValidationResult) Warnf(path, code, format string, args ...any) {
	r.add(SeverityWarning, path, code, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) add(sev ValidationSeverity, path, code, msg string) {
	r.Issues = append(r.Issues, ValidationIssue{Path: path, Code: code, Message: msg, Severity: sev})
}

// Errors returns the error-severity issues.
func (r *ValidationResult) Errors() []ValidationIssue { return r.filter(SeverityError) }

// Warnings returns the warning-severity issues.
func (r *ValidationResult) Warnings() []ValidationIssue { return r.filter(SeverityWarning) }

func (r *ValidationResult) filter(sev ValidationSeverity) []ValidationIssue {
	var out []ValidationIssue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

// Valid reports whether no error was recorded.
func (r *ValidationResult) Valid() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Merge appends the issues of other.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other != nil {
		r.Issues = append(r.Issues, other.Issues...)
	}
}

// Err returns nil for a valid result, otherwise a VALIDATION_ERROR whose
// message lists every error and whose details carry all issues.
func (r *ValidationResult) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}

	var msg string
	if len(errs) == 1 {
		msg = errs[0].String()
	} else {
		parts := make([]string, len(errs))
		for i, e := range errs {
			parts[i] = e.String()
		}
		msg = fmt.Sprintf("%d validation errors: %s", len(errs), strings.Join(parts, "; "))
	}
	return NewError(ErrCodeValidation, msg).WithDetails(map[string]any{"issues": r.Issues})
}
