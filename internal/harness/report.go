package harness

import (
	"time"

	"github.com/opmodel/stamp/internal/combo"
	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/output"
)

// Status is the outcome of one case.
type Status string

const (
	StatusPassed     Status = output.StatusPass
	StatusFailed     Status = output.StatusFail
	StatusIncomplete Status = output.StatusIncomplete
)

// Stages reported by the harness itself, next to the pipeline stages.
const (
	StageSetup = "setup"
	StageCheck = "check"
)

// CaseResult is the outcome of one case.
type CaseResult struct {
	Case       combo.Case    `json:"case"`
	Status     Status        `json:"status"`
	Stage      string        `json:"stage,omitempty"`
	Kind       string        `json:"kind,omitempty"`
	Error      string        `json:"error,omitempty"`
	Violations []string      `json:"violations,omitempty"`
	Dir        string        `json:"dir"`
	ProjectDir string        `json:"projectDir,omitempty"`
	Kept       bool          `json:"kept"`
	Duration   time.Duration `json:"duration"`

	// Err is the failure, nil unless Status is StatusFailed.
	Err error `json:"-"`
}

func (r *CaseResult) fail(stage string, err error) {
	r.Status = StatusFailed
	r.Stage = stage
	r.Err = err
	r.Kind = oerrors.Kind(err)
	r.Error = oerrors.Summary(err)
}

// Report summarizes a sweep. Cases are ordered by case index.
type Report struct {
	Template      string        `json:"template"`
	RequestedMode combo.Mode    `json:"requestedMode"`
	Mode          combo.Mode    `json:"mode"`
	Total         int           `json:"total"`
	Passed        int           `json:"passed"`
	Failed        int           `json:"failed"`
	Incomplete    int           `json:"incomplete"`
	Duration      time.Duration `json:"duration"`
	Cases         []CaseResult  `json:"cases"`
}

func newReport(template string, requested, ran combo.Mode, results []CaseResult) *Report {
	r := &Report{
		Template:      template,
		RequestedMode: requested,
		Mode:          ran,
		Total:         len(results),
		Cases:         results,
	}
	for _, c := range results {
		switch c.Status {
		case StatusPassed:
			r.Passed++
		case StatusFailed:
			r.Failed++
		default:
			r.Incomplete++
		}
	}
	return r
}

// OK reports whether every case passed.
func (r *Report) OK() bool {
	return r.Passed == r.Total
}

// Rows returns the report as table rows.
func (r *Report) Rows() []output.CaseRow {
	rows := make([]output.CaseRow, len(r.Cases))
	for i, c := range r.Cases {
		rows[i] = output.CaseRow{
			Case:    c.Case.Name,
			Status:  string(c.Status),
			Stage:   c.Stage,
			Answers: c.Case.Label(),
			Error:   c.Error,
		}
	}
	return rows
}

// Failures returns the failing cases.
func (r *Report) Failures() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if c.Status == StatusFailed {
			out = append(out, c)
		}
	}
	return out
}
