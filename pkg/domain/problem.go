package domain

import (
	"fmt"
	"strings"
)

// ProblemKind classifies a diagnostic.
type ProblemKind string

const (
	KindError   ProblemKind = "error"
	KindWarning ProblemKind = "warning"
	KindBug     ProblemKind = "bug"
)

// Problem is a unified diagnostic record shown to the user.
type Problem struct {
	Kind    ProblemKind `json:"kind"`
	Title   string      `json:"title"`
	Message string      `json:"message"`

	// Line is nil when the remote did not attribute the problem to a line.
	Line *int `json:"line"`

	// Expression is surfaced separately from the message.
	Expression string `json:"expression,omitempty"`
}

// Key is the display signature of a problem: two problems with the same key
// render the same text.
func (p Problem) Key() string {
	line := ""
	if p.Line != nil {
		line = fmt.Sprintf("%d", *p.Line)
	}
	return strings.Join([]string{line, p.Message, p.Expression}, "|")
}

// Summary counts problems by kind.
type Summary struct {
	TotalErrors   int `json:"total_errors"`
	TotalWarnings int `json:"total_warnings"`
	TotalBugs     int `json:"total_bugs"`
	TotalProblems int `json:"total_problems"`
}

// IsZero reports whether the summary has no problems at all.
func (s Summary) IsZero() bool {
	return s == Summary{}
}

// Add counts one problem of the given kind.
func (s *Summary) Add(kind ProblemKind) {
	switch kind {
	case KindError:
		s.TotalErrors++
	case KindWarning:
		s.TotalWarnings++
	case KindBug:
		s.TotalBugs++
	}
	s.TotalProblems = s.TotalErrors + s.TotalWarnings + s.TotalBugs
}

// Consistent reports whether TotalProblems equals the sum of the per-kind counts.
func (s Summary) Consistent() bool {
	return s.TotalProblems == s.TotalErrors+s.TotalWarnings+s.TotalBugs
}

// IntPtr is a small helper for optional line numbers.
func IntPtr(v int) *int {
	return &v
}
