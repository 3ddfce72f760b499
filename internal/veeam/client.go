// Package veeam drives the veeamconfig command-line tool.
//
// Every method returns the raw executor.Result: a nonzero exit is data for
// the caller to interpret, not an error. Errors mean the tool could not be
// run at all.
package veeam

import (
	"context"

	"github.com/RevCBH/veeamjob/internal/executor"
	"github.com/RevCBH/veeamjob/internal/jobspec"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DefaultCommand is the veeamconfig binary looked up on PATH.
const DefaultCommand = "veeamconfig"

// ErrToolFailure marks a veeamconfig call that exited nonzero where success was required.
var ErrToolFailure = errors.New("veeamconfig failed")

// Client builds veeamconfig argument vectors and runs them.
type Client struct {
	runner  executor.Runner
	command string
	log     *zap.Logger
}

// NewClient creates a client that runs command through runner.
// An empty command means DefaultCommand.
func NewClient(runner executor.Runner, command string, log *zap.Logger) *Client {
	if command == "" {
		command = DefaultCommand
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{runner: runner, command: command, log: log}
}

func (c *Client) run(ctx context.Context, args []string) (executor.Result, error) {
	return c.runner.Run(ctx, c.command, args...)
}

// ListJobs runs `job list`.
func (c *Client) ListJobs(ctx context.Context) (executor.Result, error) {
	return c.run(ctx, listArgs())
}

// CreateJob runs `job create fileLevel` with the full desired attribute set.
func (c *Client) CreateJob(ctx context.Context, req jobspec.Request) (executor.Result, error) {
	return c.run(ctx, createArgs(req))
}

// DeleteJob runs `job delete`.
func (c *Client) DeleteJob(ctx context.Context, name string) (executor.Result, error) {
	return c.run(ctx, deleteArgs(name))
}

// EditJob runs `job edit fileLevel ... for --name N`.
func (c *Client) EditJob(ctx context.Context, req jobspec.Request) (executor.Result, error) {
	return c.run(ctx, editArgs(req))
}

// SetSchedule runs `schedule set` for the job.
func (c *Client) SetSchedule(ctx context.Context, req jobspec.Request) (executor.Result, error) {
	return c.run(ctx, scheduleSetArgs(req))
}

// FetchLiveAttributes reads the job's current configuration from the
// `job info` and `schedule show` reports. Schedule attributes come
// first, followed by the job attributes in report order.
//
// A failing `job info` is an error. A failing `schedule show` is read as
// a job without a schedule.
func (c *Client) FetchLiveAttributes(ctx context.Context, name string) (jobspec.Attributes, error) {
	info, err := c.run(ctx, jobInfoArgs(name))
	if err != nil {
		return jobspec.Attributes{}, err
	}
	if info.ExitCode != 0 {
		return jobspec.Attributes{}, errors.Wrapf(ErrToolFailure, "job info %s: %s", name, info.StderrLine())
	}
	jobAttrs := ParseJobInfo(string(info.Stdout))

	var attrs jobspec.Attributes
	sched, err := c.run(ctx, scheduleShowArgs(name))
	if err != nil {
		return jobspec.Attributes{}, err
	}
	if sched.ExitCode != 0 {
		c.log.Debug("no schedule for job",
			zap.String("job", name),
			zap.Int("exit_code", sched.ExitCode),
			zap.String("stderr", sched.StderrLine()))
	} else {
		attrs = ParseSchedule(string(sched.Stdout))
	}
	attrs.Merge(jobAttrs)

	c.log.Debug("live attributes", zap.String("job", name), zap.Any("attributes", attrs.Map()))
	return attrs, nil
}
