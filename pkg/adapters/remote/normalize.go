package remote

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/problems"
	"github.com/mitchellh/mapstructure"
)

// wireProblem is one entry of the structured "problems" feed.
type wireProblem struct {
	Kind       string `mapstructure:"kind"`
	Title      string `mapstructure:"title"`
	Message    string `mapstructure:"message"`
	Line       *int   `mapstructure:"line"`
	Expression string `mapstructure:"expression"`
}

type wireSummary struct {
	TotalErrors   int `mapstructure:"total_errors"`
	TotalWarnings int `mapstructure:"total_warnings"`
	TotalBugs     int `mapstructure:"total_bugs"`
	TotalProblems int `mapstructure:"total_problems"`
}

// wireResponse is the union of every field the runtime endpoints have been seen to send,
// including the drifting spellings of the same field.
type wireResponse struct {
	Success bool `mapstructure:"success"`

	// Output holds whatever the program printed, so entries can be any JSON value.
	Output      []any          `mapstructure:"output"`
	Env         map[string]any `mapstructure:"env"`
	Environment map[string]any `mapstructure:"environment"`
	Trace       []any          `mapstructure:"trace"`

	// Detail is an object on success and a plain string on framework errors.
	Detail    any `mapstructure:"detail"`
	StateInfo any `mapstructure:"state_info"`

	MemoryKB    *float64 `mapstructure:"memory_kb"`
	MemoryKBAlt *float64 `mapstructure:"memoryKB"`

	Problems []wireProblem `mapstructure:"problems"`
	Summary  *wireSummary  `mapstructure:"summary"`
	Errors   []any         `mapstructure:"errors"`
	Warnings []any         `mapstructure:"warnings"`
	Bugs     []any         `mapstructure:"bugs"`

	// Error is a string on most endpoints and an object on a few.
	Error      any    `mapstructure:"error"`
	Line       *int   `mapstructure:"line"`
	Expression string `mapstructure:"expression"`

	NeedsInput bool   `mapstructure:"needs_input"`
	NeedInput  bool   `mapstructure:"need_input"`
	Message    string `mapstructure:"message"`

	SessionID string `mapstructure:"session_id"`
	PC        *int   `mapstructure:"pc"`
	Cursor    *int   `mapstructure:"cursor"`
	Done      bool   `mapstructure:"done"`
	Finished  bool   `mapstructure:"finished"`
}

func decodeWire(body map[string]any) (wireResponse, error) {
	var w wireResponse
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &w,
	})
	if err != nil {
		return w, err
	}
	if err := dec.Decode(body); err != nil {
		return w, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	return w, nil
}

// NormalizeRun converts a run or input response into a RunResult with every
// field defaulted and diagnostics unified.
func NormalizeRun(body map[string]any) (domain.RunResult, error) {
	w, err := decodeWire(body)
	if err != nil {
		return domain.RunResult{}, err
	}

	res := domain.NewRunResult()
	res.Success = w.Success
	res.Output = w.output()
	res.Environment = w.environment()
	res.Trace = w.trace()
	res.Detail = w.detail()
	res.MemoryKB = w.memoryKB()
	res.SessionID = w.SessionID
	res.NeedsInput = w.NeedsInput || w.NeedInput
	res.Message = w.Message

	legacy := w.legacyError()
	if res.NeedsInput {
		if w.Line != nil {
			res.InputLine = domain.IntPtr(*w.Line)
		}
		if res.Message == "" && legacy != nil {
			res.Message = legacy.Message
		}
	}

	raw := problems.Raw{
		Problems: w.problems(),
		Error:    legacy,
		Errors:   w.Errors,
		Warnings: w.Warnings,
		Bugs:     w.Bugs,
	}
	if w.Summary != nil {
		raw.Summary = &domain.Summary{
			TotalErrors:   w.Summary.TotalErrors,
			TotalWarnings: w.Summary.TotalWarnings,
			TotalBugs:     w.Summary.TotalBugs,
			TotalProblems: w.Summary.TotalProblems,
		}
	}
	res.Problems, res.Summary = problems.Unify(raw)
	return res, nil
}

// NormalizeDebug converts a debug, next-error or step response into a DebugResult.
func NormalizeDebug(body map[string]any) (domain.DebugResult, error) {
	w, err := decodeWire(body)
	if err != nil {
		return domain.DebugResult{}, err
	}

	res := domain.NewDebugResult()
	res.Success = w.Success
	res.Done = w.Done || w.Finished
	res.NeedsInput = w.NeedsInput || w.NeedInput
	res.SessionID = w.SessionID
	res.Environment = w.environment()
	res.Trace = w.trace()
	res.Output = w.output()
	res.Detail = w.detail()
	res.MemoryKB = w.memoryKB()
	switch {
	case w.PC != nil:
		res.Cursor = *w.PC
	case w.Cursor != nil:
		res.Cursor = *w.Cursor
	}
	if legacy := w.legacyError(); legacy != nil {
		res.Error = &domain.DebugError{
			Message:    legacy.Message,
			Line:       legacy.Line,
			Expression: legacy.Expression,
		}
	}
	return res, nil
}

// NormalizeBack converts a back response. Older runtimes answer back with the
// restored environment mapping itself; such a body becomes the Environment.
func NormalizeBack(body map[string]any) (domain.DebugResult, error) {
	if isStructured(body) {
		return NormalizeDebug(body)
	}
	res := domain.NewDebugResult()
	res.Success = true
	res.Environment = domain.CloneMap(body)
	return res, nil
}

// isStructured tells a structured response from a bare environment mapping.
// User variables may share names with response fields, so only an environment
// object or a boolean success flag counts.
func isStructured(body map[string]any) bool {
	for _, key := range []string{"env", "environment"} {
		if _, ok := body[key].(map[string]any); ok {
			return true
		}
	}
	_, ok := body["success"].(bool)
	return ok
}

func (w wireResponse) output() []string {
	out := make([]string, 0, len(w.Output))
	for _, v := range w.Output {
		out = append(out, formatValue(v))
	}
	return out
}

// formatValue renders one printed value the way the runtime prints it.
// Lists and objects fall back to JSON.
func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func (w wireResponse) environment() map[string]any {
	switch {
	case w.Env != nil:
		return w.Env
	case w.Environment != nil:
		return w.Environment
	default:
		return map[string]any{}
	}
}

func (w wireResponse) trace() []any {
	if w.Trace == nil {
		return []any{}
	}
	return w.Trace
}

// detail returns the detail object with a top-level state_info folded in.
func (w wireResponse) detail() map[string]any {
	detail := map[string]any{}
	if m, ok := w.Detail.(map[string]any); ok {
		detail = domain.CloneMap(m)
	}
	if w.StateInfo != nil {
		if _, ok := detail[domain.StateInfoKey]; !ok {
			detail[domain.StateInfoKey] = w.StateInfo
		}
	}
	return detail
}

func (w wireResponse) memoryKB() float64 {
	switch {
	case w.MemoryKB != nil:
		return *w.MemoryKB
	case w.MemoryKBAlt != nil:
		return *w.MemoryKBAlt
	default:
		return 0
	}
}

func (w wireResponse) problems() []domain.Problem {
	list := make([]domain.Problem, 0, len(w.Problems))
	for _, p := range w.Problems {
		kind := domain.ProblemKind(strings.ToLower(p.Kind))
		if kind == "" {
			kind = domain.KindError
		}
		list = append(list, domain.Problem{
			Kind:       kind,
			Title:      p.Title,
			Message:    p.Message,
			Line:       p.Line,
			Expression: p.Expression,
		})
	}
	return list
}

// legacyError reads the discrete error field. Line and expression may sit beside it
// at the top level or inside it. A framework error string in "detail" counts too.
func (w wireResponse) legacyError() *problems.LegacyError {
	e := &problems.LegacyError{Line: w.Line, Expression: w.Expression}

	switch v := w.Error.(type) {
	case nil:
		s, ok := w.Detail.(string)
		if !ok || s == "" {
			return nil
		}
		e.Message = s
	case string:
		if v == "" {
			return nil
		}
		e.Message = v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			e.Message = msg
		} else if msg, ok := v["detail"].(string); ok {
			e.Message = msg
		} else {
			data, _ := json.Marshal(v)
			e.Message = string(data)
		}
		if line, ok := v["line"].(float64); ok {
			e.Line = domain.IntPtr(int(line))
		}
		if expr, ok := v["expression"].(string); ok && expr != "" {
			e.Expression = expr
		}
	default:
		e.Message = fmt.Sprint(v)
	}
	return e
}
