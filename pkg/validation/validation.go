// Package validation lints a track beyond what is needed to build it. A
// track with findings here still loads; the report tells an author what
// looks wrong.
package validation

import "fmt"

// Level indicates which stage produced the result.
type Level string

const (
	LevelSyntax     Level = "syntax"
	LevelSemantic   Level = "semantic"
	LevelGeometry   Level = "geometry"
	LevelStructural Level = "structural"
)

// Severity indicates how critical a validation result is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Result is a single validation finding. Path names the offending element,
// e.g. "edges.main.speed_limits[2]"; Line is set for findings that come
// from a track file line.
type Result struct {
	Level       Level    `json:"level" yaml:"level"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Message     string   `json:"message" yaml:"message"`
	Path        string   `json:"path,omitempty" yaml:"path,omitempty"`
	Line        int      `json:"line,omitempty" yaml:"line,omitempty"`
	ActualValue any      `json:"actual_value,omitempty" yaml:"actual_value,omitempty"`
	Expected    string   `json:"expected,omitempty" yaml:"expected,omitempty"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

func (r Result) String() string {
	s := fmt.Sprintf("%s: %s", r.Severity, r.Message)
	if r.Path != "" {
		s += " (" + r.Path + ")"
	}
	if r.Line > 0 {
		s = fmt.Sprintf("line %d: %s", r.Line, s)
	}
	return s
}

// Report is the complete validation output.
type Report struct {
	Valid    bool     `json:"valid" yaml:"valid"`
	Errors   []Result `json:"errors" yaml:"errors"`
	Warnings []Result `json:"warnings" yaml:"warnings"`
	Info     []Result `json:"info" yaml:"info"`
	Summary  string   `json:"summary" yaml:"summary"`
}

// NewReport creates an empty valid report.
func NewReport() *Report {
	r := &Report{
		Valid:    true,
		Errors:   []Result{},
		Warnings: []Result{},
		Info:     []Result{},
	}
	r.updateSummary()
	return r
}

// AddError adds an error result and marks the report invalid.
func (r *Report) AddError(result Result) {
	result.Severity = SeverityError
	r.Errors = append(r.Errors, result)
	r.Valid = false
	r.updateSummary()
}

// AddWarning adds a warning result.
func (r *Report) AddWarning(result Result) {
	result.Severity = SeverityWarning
	r.Warnings = append(r.Warnings, result)
	r.updateSummary()
}

// AddInfo adds an informational result.
func (r *Report) AddInfo(result Result) {
	result.Severity = SeverityInfo
	r.Info = append(r.Info, result)
	r.updateSummary()
}

// Merge combines another report into this one. A nil report is ignored.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Info = append(r.Info, other.Info...)
	if !other.Valid {
		r.Valid = false
	}
	r.updateSummary()
}

// All returns errors, then warnings, then info.
func (r *Report) All() []Result {
	out := make([]Result, 0, len(r.Errors)+len(r.Warnings)+len(r.Info))
	out = append(out, r.Errors...)
	out = append(out, r.Warnings...)
	return append(out, r.Info...)
}

func (r *Report) updateSummary() {
	r.Summary = fmt.Sprintf("%d errors, %d warnings, %d info",
		len(r.Errors), len(r.Warnings), len(r.Info))
}
