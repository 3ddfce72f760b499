// Package report turns reconciliation outcomes into the result document
// handed back to the orchestrator.
package report

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/RevCBH/veeamjob/internal/reconcile"
	"github.com/cockroachdb/errors"
)

// Result is the externally visible outcome of one invocation.
type Result struct {
	Changed bool
	Failed  bool
	// Message and Msg hold quoted string literals.
	Message string
	Msg     string
	// Jobs is non-nil for list requests only.
	Jobs []string
}

// Quote wraps s as a JSON string literal without HTML escaping, so
// consumers always receive a consistently quoted scalar.
func Quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// FromOutcome reports a completed reconciliation. Job outcomes always
// carry a quoted message, even an empty one; list outcomes carry none.
func FromOutcome(out reconcile.Outcome) Result {
	r := Result{Changed: out.Changed, Jobs: out.Jobs}
	if out.Jobs == nil {
		r.Message = Quote(out.Message)
	}
	return r
}

// FromError reports an aborted invocation. Tool failures surface the
// tool's own message; anything else its error text.
func FromError(err error) Result {
	msg := err.Error()
	var fe *reconcile.FailureError
	if errors.As(err, &fe) {
		msg = fe.Message
	}
	return Result{Failed: true, Msg: Quote(msg)}
}

// Unchanged reports a run that made no calls, such as check mode.
func Unchanged() Result {
	return Result{}
}
