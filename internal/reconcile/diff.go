package reconcile

import (
	"strings"

	"github.com/RevCBH/veeamjob/internal/jobspec"
)

// Difference is one attribute whose live value does not match the request.
type Difference struct {
	Key     string
	Live    string
	Desired string
}

// Diff compares live attributes against the request.
//
// Schedule keys are visited before job keys. Within each group keys
// follow the order the live map was populated, then any requested key
// the live report lacked (compared as empty). Keys the request does not
// manage are skipped.
func Diff(req jobspec.Request, live jobspec.Attributes) []Difference {
	var diffs []Difference
	for _, key := range diffOrder(live) {
		desired, managed := req.Desired(key)
		if !managed {
			continue
		}
		current, _ := live.Get(key)
		if !Equal(current, desired) {
			diffs = append(diffs, Difference{Key: key, Live: current, Desired: desired})
		}
	}
	return diffs
}

func diffOrder(live jobspec.Attributes) []string {
	candidates := append(live.Keys(), jobspec.Keys...)
	order := make([]string, 0, len(candidates))
	seen := make(map[string]bool)
	for _, schedule := range []bool{true, false} {
		for _, key := range candidates {
			if seen[key] || jobspec.IsScheduleKey(key) != schedule {
				continue
			}
			seen[key] = true
			order = append(order, key)
		}
	}
	return order
}

// Equal compares attribute values ignoring case and spaces.
func Equal(a, b string) bool {
	return normalize(a) == normalize(b)
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}
