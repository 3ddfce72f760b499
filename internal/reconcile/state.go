package reconcile

import (
	"github.com/RevCBH/veeamjob/internal/jobspec"
	"github.com/cockroachdb/errors"
)

// State is where a job stands during one reconciliation.
type State string

const (
	StateAbsent          State = "absent"
	StateCreatePending   State = "create-pending"
	StateExistsDivergent State = "exists-divergent"
	StateExistsConverged State = "exists-converged"
	StateDeleted         State = "deleted"
)

// Action names one veeamconfig call made by the reconciler.
type Action string

const (
	ActionList     Action = "list"
	ActionCreate   Action = "create"
	ActionDelete   Action = "delete"
	ActionFetch    Action = "fetch"
	ActionEdit     Action = "edit"
	ActionSchedule Action = "schedule"
)

// Group is a set of attributes corrected by a single call.
type Group string

const (
	GroupJob      Group = "job"
	GroupSchedule Group = "schedule"
)

func groupOf(key string) Group {
	if jobspec.IsScheduleKey(key) {
		return GroupSchedule
	}
	return GroupJob
}

func (g Group) action() Action {
	if g == GroupSchedule {
		return ActionSchedule
	}
	return ActionEdit
}

// Policy decides which differing attribute groups get corrected.
type Policy string

const (
	// PolicyFirstDivergence corrects only the group of the first
	// differing attribute, then stops. One corrective call per run.
	PolicyFirstDivergence Policy = "first-divergence"

	// PolicyConverge corrects every differing group: at most one edit
	// call and one schedule call.
	PolicyConverge Policy = "converge"

	DefaultPolicy = PolicyFirstDivergence
)

// ParsePolicy converts a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyFirstDivergence, PolicyConverge:
		return p, nil
	case "":
		return DefaultPolicy, nil
	default:
		return "", errors.Newf("unknown policy %q (must be %q or %q)", s, PolicyFirstDivergence, PolicyConverge)
	}
}

// groups returns the groups to correct, in the order their first
// differing attribute was found.
func (p Policy) groups(diffs []Difference) []Group {
	all := differingGroups(diffs)
	if p == PolicyConverge || len(all) == 0 {
		return all
	}
	return all[:1]
}

func differingGroups(diffs []Difference) []Group {
	var groups []Group
	seen := make(map[Group]bool)
	for _, d := range diffs {
		g := groupOf(d.Key)
		if !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	return groups
}
