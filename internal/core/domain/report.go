package domain

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Report is the persisted summary of one run.
type Report struct {
	ID            string         `json:"id"`
	Fingerprint   string         `json:"fingerprint"`
	Requested     []string       `json:"requested"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Success       bool           `json:"success"`
	Configuration string         `json:"configuration,omitempty"`
	Source        string         `json:"source_branch,omitempty"`
	Target        string         `json:"target_branch,omitempty"`
	Targets       []TargetReport `json:"targets"`
}

// TargetReport is the per-target part of a Report.
type TargetReport struct {
	Name       string       `json:"name"`
	Status     TargetStatus `json:"status"`
	DurationMS int64        `json:"duration_ms"`
	Error      string       `json:"error,omitempty"`
}

// NewReport summarizes a result. Targets appear in plan order.
func NewReport(id string, res *Result, startedAt, finishedAt time.Time) *Report {
	report := &Report{
		ID:          id,
		Fingerprint: PlanFingerprint(res.Plan),
		Requested:   res.Plan.Requested(),
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		Success:     res.Success(),
		Targets:     make([]TargetReport, 0, res.Plan.Len()),
	}
	for _, name := range res.Plan.order {
		o := res.Outcomes[name]
		tr := TargetReport{
			Name:       name,
			Status:     o.Status,
			DurationMS: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			tr.Error = o.Err.Error()
		}
		report.Targets = append(report.Targets, tr)
	}
	return report
}

// PlanFingerprint hashes the execution order and its ordering edges.
// Equal plans always produce equal fingerprints.
func PlanFingerprint(plan *Plan) string {
	hasher := xxhash.New()
	for _, name := range plan.order {
		_, _ = hasher.WriteString(name)
		_, _ = hasher.Write([]byte{0})
		for _, dep := range plan.after[name] {
			_, _ = hasher.WriteString(dep)
			_, _ = hasher.Write([]byte{0})
		}
		_, _ = hasher.Write([]byte{0}) // Section separator
	}
	return fmt.Sprintf("%016x", hasher.Sum64())
}
