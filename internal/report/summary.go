package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
)

const (
	prefix              = "   "
	runSummaryHeader    = "❯❯ Run Summary"
	successLabel        = "Succeeded"
	failureLabel        = "Failed"
	interruptLabel      = "Interrupted"
	excludeLabel        = "Excluded"
	separatorLineLength = 28
	labelColumnWidth    = 14
)

// Summary formats data from a report for output as a summary.
type Summary struct {
	firstRunStart        *time.Time
	lastRunEnd           *time.Time
	runs                 []*Run
	TasksSucceeded       int
	TasksFailed          int
	Interrupted          int
	Excluded             int
	shouldColor          bool
	showTaskLevelSummary bool
}

// Summarize returns a summary of the report.
func (r *Report) Summarize() *Summary {
	summary := &Summary{
		shouldColor:          r.shouldColor,
		showTaskLevelSummary: r.showTaskLevelSummary,
		runs:                 r.Runs(),
	}

	for _, run := range summary.runs {
		summary.Update(run)
	}

	return summary
}

// TotalTasks returns the number of tasks in the summary.
func (s *Summary) TotalTasks() int {
	return len(s.runs)
}

// Update counts the given run.
func (s *Summary) Update(run *Run) {
	run.mu.RLock()
	defer run.mu.RUnlock()

	switch run.Result {
	case ResultSucceeded:
		s.TasksSucceeded++
	case ResultFailed:
		s.TasksFailed++
	case ResultInterrupted:
		s.Interrupted++
	case ResultExcluded:
		s.Excluded++
	}

	if s.firstRunStart == nil || run.Started.Before(*s.firstRunStart) {
		s.firstRunStart = &run.Started
	}

	if !run.Ended.IsZero() && (s.lastRunEnd == nil || run.Ended.After(*s.lastRunEnd)) {
		s.lastRunEnd = &run.Ended
	}
}

// TotalDuration returns the time between the first task start and the last task end.
func (s *Summary) TotalDuration() time.Duration {
	if s.firstRunStart == nil || s.lastRunEnd == nil {
		return 0
	}

	return s.lastRunEnd.Sub(*s.firstRunStart)
}

// WriteSummary writes the summary to a writer. Nothing is written for an empty report.
func (r *Report) WriteSummary(w io.Writer) error {
	summary := r.Summarize()

	if summary.TotalTasks() == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	if err := summary.Write(w); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w)

	return err
}

// Write writes the summary to a writer.
func (s *Summary) Write(w io.Writer) error {
	colorizer := NewColorizer(s.shouldColor)

	header := fmt.Sprintf("%s  %s  %s",
		colorizer.headingTitleColorizer(runSummaryHeader),
		colorizer.headingTaskColorizer(pluralTasks(s.TotalTasks())),
		colorizer.colorDuration(s.TotalDuration()),
	)

	if _, err := fmt.Fprintf(w, "%s\n%s%s\n", header, prefix, strings.Repeat("─", separatorLineLength)); err != nil {
		return err
	}

	categories := []struct {
		colorizer func(string) string
		result    Result
		label     string
		count     int
	}{
		{colorizer.successColorizer, ResultSucceeded, successLabel, s.TasksSucceeded},
		{colorizer.failureColorizer, ResultFailed, failureLabel, s.TasksFailed},
		{colorizer.interruptColorizer, ResultInterrupted, interruptLabel, s.Interrupted},
		{colorizer.excludeColorizer, ResultExcluded, excludeLabel, s.Excluded},
	}

	for _, category := range categories {
		if category.count == 0 {
			continue
		}

		padding := strings.Repeat(" ", max(labelColumnWidth-len(category.label), 2))

		if _, err := fmt.Fprintf(w, "%s%s%s%d\n", prefix, category.colorizer(category.label), colorizer.paddingColorizer(padding), category.count); err != nil {
			return err
		}

		if !s.showTaskLevelSummary {
			continue
		}

		if err := s.writeTasks(w, category.result, colorizer); err != nil {
			return err
		}
	}

	return nil
}

// writeTasks lists the tasks with the given result, longest first.
func (s *Summary) writeTasks(w io.Writer, result Result, colorizer *Colorizer) error {
	var runs []*Run

	nameWidth := 0

	for _, run := range s.runs {
		if run.Result == result {
			runs = append(runs, run)
			nameWidth = max(nameWidth, len(run.Name))
		}
	}

	slices.SortStableFunc(runs, func(a, b *Run) int {
		return int(b.Duration() - a.Duration())
	})

	for _, run := range runs {
		padding := strings.Repeat(" ", nameWidth-len(run.Name)+2)

		if _, err := fmt.Fprintf(w, "%s%s%s%s%s\n", prefix, prefix, run.Name, padding, colorizer.colorDuration(run.Duration())); err != nil {
			return err
		}
	}

	return nil
}

func pluralTasks(count int) string {
	if count == 1 {
		return "1 task"
	}

	return fmt.Sprintf("%d tasks", count)
}
