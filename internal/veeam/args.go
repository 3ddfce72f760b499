package veeam

import "github.com/RevCBH/veeamjob/internal/jobspec"

func listArgs() []string {
	return []string{"job", "list"}
}

func createArgs(req jobspec.Request) []string {
	args := []string{"job", "create", "fileLevel",
		"--name", req.Name,
		"--includeDirs", req.IncludeDirs,
		"--repoName", req.RepoName,
	}
	args = appendOptional(args, req)
	return appendSchedule(args, req)
}

func deleteArgs(name string) []string {
	return []string{"job", "delete", "--name", name}
}

// editArgs targets the job by name after the "for" keyword.
func editArgs(req jobspec.Request) []string {
	args := []string{"job", "edit", "fileLevel",
		"--includeDirs", req.IncludeDirs,
		"--repoName", req.RepoName,
	}
	args = appendOptional(args, req)
	return append(args, "for", "--name", req.Name)
}

func scheduleSetArgs(req jobspec.Request) []string {
	return appendSchedule([]string{"schedule", "set", "--jobName", req.Name}, req)
}

func jobInfoArgs(name string) []string {
	return []string{"job", "info", "--name", name}
}

func scheduleShowArgs(name string) []string {
	return []string{"schedule", "show", "--jobName", name}
}

func appendOptional(args []string, req jobspec.Request) []string {
	if req.Prefreeze != nil {
		args = append(args, "--prefreeze", *req.Prefreeze)
	}
	if req.MaxPoints != nil {
		args = append(args, "--maxPoints", req.MaxPoints.String())
	}
	return args
}

// appendSchedule adds --daily or --weekdays for the run days, and --at
// whenever a run time was given.
func appendSchedule(args []string, req jobspec.Request) []string {
	if req.RunDays != nil {
		if req.Daily() {
			args = append(args, "--daily")
		} else {
			args = append(args, "--weekdays", *req.RunDays)
		}
	}
	if req.RunAt != nil {
		args = append(args, "--at", *req.RunAt)
	}
	return args
}
