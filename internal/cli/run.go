package cli

import (
	"context"
	"io"
	"os"

	"github.com/RevCBH/veeamjob/internal/config"
	"github.com/RevCBH/veeamjob/internal/executor"
	"github.com/RevCBH/veeamjob/internal/jobspec"
	"github.com/RevCBH/veeamjob/internal/logging"
	"github.com/RevCBH/veeamjob/internal/reconcile"
	"github.com/RevCBH/veeamjob/internal/report"
	"github.com/RevCBH/veeamjob/internal/veeam"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// ErrReported marks a failure whose result document was already written
// to stdout.
var ErrReported = errors.New("request failed")

// runRequest reconciles one request and writes the result document to
// the command's stdout. Any failure is reported there as well and
// returned, so the process exits non-zero.
func (a *App) runRequest(cmd *cobra.Command, req jobspec.Request) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadConfig(a.opts.ConfigPath)
	if err != nil {
		return a.fail(out, a.opts.Output, err)
	}
	format := cfg.Output
	if a.opts.Output != "" {
		format = a.opts.Output
	}
	if _, err := report.ParseFormat(format); err != nil {
		return a.fail(out, format, err)
	}

	level := cfg.LogLevel
	if a.opts.Verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.LogFormat, a.logOut)
	if err != nil {
		return a.fail(out, format, err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("run_id", uuid.NewString()))

	req.Normalize()
	if err := req.Validate(); err != nil {
		log.Debug("invalid request", zap.Error(err))
		return a.fail(out, format, err)
	}

	if a.opts.Check {
		log.Info("check mode, no calls made",
			zap.String("type", string(req.Type)),
			zap.String("name", req.Name))
		return a.emit(out, format, report.Unchanged())
	}

	policy, err := reconcile.ParsePolicy(cfg.Policy)
	if err != nil {
		return a.fail(out, format, err)
	}
	waitDelay, err := cfg.WaitDelayDuration()
	if err != nil {
		return a.fail(out, format, errors.Wrap(err, "wait_delay"))
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	signals := NewSignalHandler(cancel, log)
	signals.Start(a.notifySignals)
	defer signals.Stop()

	runner := a.newRunner(executor.Options{
		Locale:    cfg.Locale,
		WaitDelay: waitDelay,
		Logger:    log,
	})
	client := veeam.NewClient(runner, cfg.Command, log)
	rec := reconcile.New(client,
		reconcile.WithPolicy(policy),
		reconcile.WithLogger(log),
	)

	outcome, err := rec.Reconcile(ctx, req)
	if err != nil {
		log.Error("reconcile failed", zap.Error(err))
		return a.fail(out, format, err)
	}
	return a.emit(out, format, report.FromOutcome(outcome))
}

// fail writes the failure document for err and returns err marked as
// already reported.
func (a *App) fail(w io.Writer, format string, err error) error {
	if encErr := a.emit(w, format, report.FromError(err)); encErr != nil {
		return errors.CombineErrors(err, encErr)
	}
	return errors.Mark(err, ErrReported)
}

// emit writes r in the requested format. Auto selects styled text for an
// interactive terminal and JSON otherwise.
func (a *App) emit(w io.Writer, format string, r report.Result) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		// An unusable format still yields a parseable document.
		f = report.FormatJSON
	}
	if f == report.FormatAuto {
		f = report.FormatJSON
		if isTerminal(w) {
			f = report.FormatText
		}
	}
	return report.Encode(w, r, f)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
