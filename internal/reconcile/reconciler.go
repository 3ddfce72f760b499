// Package reconcile converges a veeam backup job toward a requested state.
//
// A present request first attempts creation. When veeamconfig reports the
// job already exists, the live attributes are read back and compared with
// the request, and only the differing attribute groups are corrected.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/RevCBH/veeamjob/internal/executor"
	"github.com/RevCBH/veeamjob/internal/jobspec"
	"github.com/RevCBH/veeamjob/internal/veeam"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// alreadyExists is matched in the first stderr line of a failed create.
const alreadyExists = "already exists"

// Client is the set of veeamconfig operations the reconciler needs.
// *veeam.Client implements it.
type Client interface {
	ListJobs(ctx context.Context) (executor.Result, error)
	CreateJob(ctx context.Context, req jobspec.Request) (executor.Result, error)
	DeleteJob(ctx context.Context, name string) (executor.Result, error)
	EditJob(ctx context.Context, req jobspec.Request) (executor.Result, error)
	SetSchedule(ctx context.Context, req jobspec.Request) (executor.Result, error)
	FetchLiveAttributes(ctx context.Context, name string) (jobspec.Attributes, error)
}

var _ Client = (*veeam.Client)(nil)

// Outcome is what one reconciliation did.
type Outcome struct {
	Changed bool
	// Message is the first line of the most relevant tool output, unquoted.
	Message string
	// Jobs is set for list requests only.
	Jobs    []string
	State   State
	Actions []Action
	Diffs   []Difference
}

// FailureError is a veeamconfig failure that aborts the invocation.
type FailureError struct {
	Action  Action
	Message string
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

func (e *FailureError) Unwrap() error {
	return veeam.ErrToolFailure
}

// Reconciler runs one request against a Client.
type Reconciler struct {
	client Client
	policy Policy
	log    *zap.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithPolicy sets the correction policy.
func WithPolicy(p Policy) Option {
	return func(r *Reconciler) { r.policy = p }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

// New creates a Reconciler using DefaultPolicy unless overridden.
func New(client Client, opts ...Option) *Reconciler {
	r := &Reconciler{client: client, policy: DefaultPolicy, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile processes req. A returned error aborts the invocation; the
// Outcome still records the actions taken before it.
func (r *Reconciler) Reconcile(ctx context.Context, req jobspec.Request) (Outcome, error) {
	switch req.Type {
	case jobspec.TypeList:
		return r.list(ctx)
	case jobspec.TypeJob:
		if req.State == jobspec.StateAbsent {
			return r.absent(ctx, req)
		}
		return r.present(ctx, req)
	}
	return Outcome{}, errors.Mark(errors.Newf("unsupported request type %q", req.Type), jobspec.ErrInvalidRequest)
}

func (r *Reconciler) list(ctx context.Context) (Outcome, error) {
	out := Outcome{Actions: []Action{ActionList}}

	res, err := r.client.ListJobs(ctx)
	if err != nil {
		return out, err
	}
	if res.ExitCode != 0 {
		return out, &FailureError{Action: ActionList, Message: string(res.Stderr)}
	}

	out.Jobs = veeam.ParseJobList(string(res.Stdout))
	r.log.Debug("listed jobs", zap.Strings("jobs", out.Jobs))
	return out, nil
}

func (r *Reconciler) absent(ctx context.Context, req jobspec.Request) (Outcome, error) {
	out := Outcome{State: StateAbsent, Actions: []Action{ActionDelete}}
	log := r.log.With(zap.String("job", req.Name))

	res, err := r.client.DeleteJob(ctx, req.Name)
	if err != nil {
		return out, err
	}
	if res.ExitCode != 0 {
		return out, &FailureError{Action: ActionDelete, Message: res.StderrLine()}
	}

	out.Changed = true
	out.Message = res.StdoutLine()
	out.State = StateDeleted
	log.Info("job deleted")
	return out, nil
}

func (r *Reconciler) present(ctx context.Context, req jobspec.Request) (Outcome, error) {
	out := Outcome{State: StateCreatePending, Actions: []Action{ActionCreate}}
	log := r.log.With(zap.String("job", req.Name))

	res, err := r.client.CreateJob(ctx, req)
	if err != nil {
		return out, err
	}
	if res.ExitCode == 0 {
		out.Changed = true
		out.Message = res.StdoutLine()
		out.State = StateExistsConverged
		log.Info("job created")
		return out, nil
	}

	conflict := res.StderrLine()
	if !strings.Contains(conflict, alreadyExists) {
		return out, &FailureError{Action: ActionCreate, Message: conflict}
	}
	log.Debug("job exists, comparing live attributes")

	out.Actions = append(out.Actions, ActionFetch)
	live, err := r.client.FetchLiveAttributes(ctx, req.Name)
	if err != nil {
		return out, err
	}

	out.Message = conflict
	out.Diffs = Diff(req, live)
	if len(out.Diffs) == 0 {
		out.State = StateExistsConverged
		log.Info("job already matches")
		return out, nil
	}

	out.State = StateExistsDivergent
	for _, d := range out.Diffs {
		log.Debug("attribute differs", zap.String("key", d.Key), zap.String("live", d.Live), zap.String("desired", d.Desired))
	}

	groups := r.policy.groups(out.Diffs)
	converged := len(groups) == len(differingGroups(out.Diffs))
	for _, g := range groups {
		out.Actions = append(out.Actions, g.action())
		res, err := r.correct(ctx, g, req)
		if err != nil {
			return out, err
		}
		if res.ExitCode != 0 {
			// Corrective failures are reported, not fatal.
			out.Message = res.StderrLine()
			converged = false
			log.Warn("correction failed", zap.String("group", string(g)), zap.String("stderr", out.Message))
			continue
		}
		out.Changed = true
		out.Message = res.StdoutLine()
		log.Info("job corrected", zap.String("group", string(g)))
	}

	if converged {
		out.State = StateExistsConverged
	}
	return out, nil
}

func (r *Reconciler) correct(ctx context.Context, g Group, req jobspec.Request) (executor.Result, error) {
	if g == GroupSchedule {
		return r.client.SetSchedule(ctx, req)
	}
	return r.client.EditJob(ctx, req)
}
