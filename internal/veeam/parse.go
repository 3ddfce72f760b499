package veeam

import (
	"strings"

	"github.com/RevCBH/veeamjob/internal/jobspec"
)

// veeamconfig has no machine-readable output, so live state is read by
// matching these labels in its reports. The strings must stay exact.
const (
	labelRepoName    = "Repository name"
	labelPrefreeze   = "Pre-freeze command"
	labelIncludeDirs = "Include Directory"
	labelMaxPoints   = "Max points"

	labelEveryDay = "Every day"
	labelDays     = "Days"
	labelAt       = "At"
)

var jobInfoLabels = []struct {
	label string
	key   string
}{
	{labelRepoName, jobspec.KeyRepoName},
	{labelPrefreeze, jobspec.KeyPrefreeze},
	{labelIncludeDirs, jobspec.KeyIncludeDirs},
	{labelMaxPoints, jobspec.KeyMaxPoints},
}

// ParseJobInfo extracts job attributes from `job info` output. Keys are
// recorded in the order their lines appear; unknown lines are ignored.
func ParseJobInfo(text string) jobspec.Attributes {
	var attrs jobspec.Attributes
	for _, line := range strings.Split(text, "\n") {
		for _, l := range jobInfoLabels {
			if strings.Contains(line, l.label) {
				attrs.Set(l.key, field(line))
			}
		}
	}
	return attrs
}

// ParseSchedule extracts run days and run time from `schedule show` output.
func ParseSchedule(text string) jobspec.Attributes {
	var attrs jobspec.Attributes
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, labelEveryDay) {
			attrs.Set(jobspec.KeyRunDays, jobspec.DailySchedule)
		}
		if strings.Contains(line, labelDays) {
			attrs.Set(jobspec.KeyRunDays, field(line))
		}
		if strings.Contains(line, labelAt) {
			// The time itself contains a colon.
			_, rest, _ := strings.Cut(line, ":")
			attrs.Set(jobspec.KeyRunAt, strings.TrimSpace(rest))
		}
	}
	return attrs
}

// ParseJobList returns the first token of each job line of `job list`
// output, skipping the header line and blank lines.
func ParseJobList(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	jobs := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		jobs = append(jobs, fields[0])
	}
	return jobs
}

// field returns the text between the first and second colon, trimmed.
func field(line string) string {
	parts := strings.Split(line, ":")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
