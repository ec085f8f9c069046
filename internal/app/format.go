package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go.trai.ch/gate/internal/core/domain"
	"go.trai.ch/gate/internal/engine/policy"
	"go.trai.ch/gate/internal/ui/style"
)

// WritePlan prints the execution order with the ordering edges of each target.
func WritePlan(w io.Writer, plan *domain.Plan, pipeline *domain.Pipeline) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan for %s (%d %s)\n",
		strings.Join(plan.Requested(), ", "), plan.Len(), plural(plan.Len(), "target", "targets"))

	width := nameWidth(plan.Order())
	for i, name := range plan.Walk() {
		fmt.Fprintf(&b, "%3d. %-*s", i+1, width, name)

		var notes []string
		if after := plan.After(name); len(after) > 0 {
			notes = append(notes, "after "+strings.Join(after, ", "))
		}
		if t, ok := pipeline.Target(name); ok {
			if t.Gated {
				notes = append(notes, "[gated]")
			}
			if len(t.Command) == 0 && !t.Gated {
				notes = append(notes, "[no command]")
			}
		}
		if len(notes) > 0 {
			b.WriteString("  " + strings.Join(notes, "  "))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, trimLines(b.String()))
	return err
}

// WriteTargets prints every declared target in declaration order.
func WriteTargets(w io.Writer, pipeline *domain.Pipeline) error {
	names := make([]string, 0, len(pipeline.Targets))
	for _, t := range pipeline.Targets {
		names = append(names, t.Name)
	}
	width := nameWidth(names)

	var b strings.Builder
	for _, t := range pipeline.Targets {
		fmt.Fprintf(&b, "%-*s", width, t.Name)
		if t.Description != "" {
			b.WriteString("  " + t.Description)
		}
		if len(t.DependsOn) > 0 {
			b.WriteString("  (depends on " + strings.Join(t.DependsOn, ", ") + ")")
		}
		if t.Gated {
			b.WriteString("  [gated]")
		}
		b.WriteString("\n")
	}

	if len(pipeline.Triggers) > 0 {
		b.WriteString("\nTriggers:\n")
		for _, trig := range pipeline.Triggers {
			branches := "*"
			if len(trig.Branches) > 0 {
				branches = strings.Join(trig.Branches, ", ")
			}
			fmt.Fprintf(&b, "  %s: on %s [%s] -> %s\n",
				trig.Name, trig.On, branches, strings.Join(trig.Targets, ", "))
		}
	}

	_, err := io.WriteString(w, trimLines(b.String()))
	return err
}

// WriteReport prints a run report.
func WriteReport(w io.Writer, report *domain.Report) error {
	outcome := "succeeded"
	if !report.Success {
		outcome = "failed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s %s\n", report.ID, outcome)
	fmt.Fprintf(&b, "  requested:   %s\n", strings.Join(report.Requested, ", "))
	fmt.Fprintf(&b, "  fingerprint: %s\n", report.Fingerprint)
	fmt.Fprintf(&b, "  started:     %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "  duration:    %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	if report.Source != "" || report.Target != "" {
		fmt.Fprintf(&b, "  branches:    %s -> %s\n", report.Source, report.Target)
	}
	b.WriteString("\n")

	names := make([]string, 0, len(report.Targets))
	for _, t := range report.Targets {
		names = append(names, t.Name)
	}
	width := nameWidth(names)

	for _, t := range report.Targets {
		fmt.Fprintf(&b, "  %s %-*s  %s", statusIcon(t.Status), width, t.Name, t.Status)
		if t.Status == domain.StatusSucceeded || t.Status == domain.StatusFailed {
			fmt.Fprintf(&b, "  %s", time.Duration(t.DurationMS)*time.Millisecond)
		}
		if t.Error != "" {
			// Only the first line; the full chain was logged during the run.
			first, _, _ := strings.Cut(t.Error, "\n")
			b.WriteString("  " + first)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteDecision prints the outcome of a branch policy check.
func WriteDecision(w io.Writer, decision policy.Decision) error {
	var err error
	if decision.Allowed() {
		_, err = fmt.Fprintf(w, "%s merge allowed: %s -> %s\n", style.Check, decision.Source.Name, decision.Target)
	} else {
		_, err = fmt.Fprintf(w, "%s merge rejected: %s\n", style.Cross, decision.Err)
	}
	return err
}

func statusIcon(status domain.TargetStatus) string {
	switch status {
	case domain.StatusSucceeded:
		return style.Check
	case domain.StatusFailed:
		return style.Cross
	case domain.StatusSkipped:
		return style.Skip
	default:
		return style.Circle
	}
}

func nameWidth(names []string) int {
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	return width
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// trimLines drops the padding left behind on lines without notes.
func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}
