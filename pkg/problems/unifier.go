package problems

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/ayr/pkg/domain"
)

// FallbackMessage replaces a legacy error message that is empty after stripping.
const FallbackMessage = "Expression evaluation failed."

const (
	runtimeErrorTitle = "Runtime Error:"
	errorTitle        = "Error:"
	warningTitle      = "Warning:"
	bugTitle          = "Bug:"
)

var expressionPattern = regexp.MustCompile(`Expression:\s*(.+)`)

// LegacyError is the discrete error field older endpoints report.
type LegacyError struct {
	Message    string
	Line       *int
	Expression string
}

// Raw gathers every diagnostic shape a response may carry.
type Raw struct {
	// Problems is the structured feed. When non-empty it is authoritative.
	Problems []domain.Problem

	Error *LegacyError

	// Legacy lists hold strings or partial objects.
	Errors   []any
	Warnings []any
	Bugs     []any

	// Summary is the remote supplied summary, trusted as-is.
	Summary *domain.Summary
}

// Unify produces the canonical problem list and summary from any input shape.
func Unify(raw Raw) ([]domain.Problem, domain.Summary) {
	list := resolve(raw)
	if raw.Summary != nil {
		return list, *raw.Summary
	}
	return list, Summarize(list)
}

func resolve(raw Raw) []domain.Problem {
	if len(raw.Problems) > 0 {
		return append([]domain.Problem{}, raw.Problems...)
	}
	if raw.Error != nil {
		return []domain.Problem{FromError(*raw.Error)}
	}

	list := make([]domain.Problem, 0, len(raw.Errors)+len(raw.Warnings)+len(raw.Bugs))
	seen := make(map[string]struct{})
	appendEntries := func(kind domain.ProblemKind, title string, entries []any) {
		for _, entry := range entries {
			p := FromEntry(kind, title, entry)
			if _, dup := seen[string(kind)+"|"+p.Key()]; dup {
				continue
			}
			seen[string(kind)+"|"+p.Key()] = struct{}{}
			list = append(list, p)
		}
	}
	appendEntries(domain.KindError, errorTitle, raw.Errors)
	appendEntries(domain.KindWarning, warningTitle, raw.Warnings)
	appendEntries(domain.KindBug, bugTitle, raw.Bugs)
	return list
}

// Title returns the synthesized title for a legacy error.
func Title(line *int) string {
	if line != nil {
		return fmt.Sprintf("Expression Error (Line %d):", *line)
	}
	return runtimeErrorTitle
}

// FromError converts a legacy error into a single error problem.
// The title prefix and the inline "Expression: ..." fragment are stripped from
// the message because both are displayed as separate fields.
func FromError(e LegacyError) domain.Problem {
	title := Title(e.Line)

	expr := strings.TrimSpace(e.Expression)
	if expr == "" {
		if m := expressionPattern.FindStringSubmatch(e.Message); len(m) > 1 {
			expr = strings.TrimSpace(m[1])
		}
	}

	msg := strings.TrimSpace(e.Message)
	if strings.HasPrefix(msg, title) {
		msg = strings.TrimSpace(strings.TrimPrefix(msg, title))
	}
	if expr != "" {
		msg = strings.TrimSpace(strings.Replace(msg, "Expression: "+expr, "", 1))
	}
	msg = strings.TrimSpace(strings.TrimPrefix(msg, ":"))
	if msg == "" {
		msg = FallbackMessage
	}

	var line *int
	if e.Line != nil {
		line = domain.IntPtr(*e.Line)
	}
	return domain.Problem{
		Kind:       domain.KindError,
		Title:      title,
		Message:    msg,
		Line:       line,
		Expression: expr,
	}
}

// FromEntry converts one legacy list entry. Strings become the message verbatim;
// objects use their message field or, failing that, their JSON form.
func FromEntry(kind domain.ProblemKind, title string, entry any) domain.Problem {
	p := domain.Problem{Kind: kind, Title: title}

	switch v := entry.(type) {
	case string:
		p.Message = v
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			p.Message = msg
		} else {
			p.Message = serialize(v)
		}
		if t, ok := v["title"].(string); ok && t != "" {
			p.Title = t
		}
		if expr, ok := v["expression"].(string); ok {
			p.Expression = expr
		}
		p.Line = lineOf(v["line"])
	case nil:
		p.Message = FallbackMessage
	default:
		p.Message = serialize(v)
	}
	return p
}

// Summarize derives counts by kind.
func Summarize(list []domain.Problem) domain.Summary {
	var s domain.Summary
	for _, p := range list {
		s.Add(p.Kind)
	}
	return s
}

// Single returns the list and summary for exactly one error problem,
// the shape every debug stop reports.
func Single(e LegacyError) ([]domain.Problem, domain.Summary) {
	p := FromError(e)
	return []domain.Problem{p}, domain.Summary{TotalErrors: 1, TotalProblems: 1}
}

func serialize(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func lineOf(v any) *int {
	switch n := v.(type) {
	case int:
		return domain.IntPtr(n)
	case int64:
		return domain.IntPtr(int(n))
	case float64:
		return domain.IntPtr(int(n))
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return domain.IntPtr(int(i))
		}
	}
	return nil
}
