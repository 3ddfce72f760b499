package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
)

const (
	// DefaultLocale keeps tool output unlocalized so report labels stay stable.
	DefaultLocale = "C"

	// DefaultWaitDelay bounds how long output is drained after the child exits.
	DefaultWaitDelay = 5 * time.Second
)

// localeVars are pinned on every child process.
var localeVars = []string{"LANG", "LC_ALL", "LC_MESSAGES"}

// Result is the outcome of one process run. A nonzero ExitCode is a
// result, not an error.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// StdoutLine returns the first line of stdout.
func (r Result) StdoutLine() string {
	return FirstLine(r.Stdout)
}

// StderrLine returns the first line of stderr.
func (r Result) StderrLine() string {
	return FirstLine(r.Stderr)
}

// FirstLine returns the text before the first newline, without a trailing CR.
func FirstLine(b []byte) string {
	line, _, _ := strings.Cut(string(b), "\n")
	return strings.TrimSuffix(line, "\r")
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Options controls how child processes are started.
type Options struct {
	// Locale is written to LANG, LC_ALL and LC_MESSAGES. Empty means DefaultLocale.
	Locale string

	// WaitDelay bounds the output drain once the child has exited, so a
	// grandchild holding the pipes open cannot block the call.
	// Zero means DefaultWaitDelay.
	WaitDelay time.Duration

	// Environ supplies the inherited environment. Nil means os.Environ.
	Environ func() []string

	Logger *zap.Logger
}

// osRunner executes real commands via exec.CommandContext.
type osRunner struct {
	opts Options
}

// New returns a Runner that starts real processes.
func New(opts Options) Runner {
	if opts.Locale == "" {
		opts.Locale = DefaultLocale
	}
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = DefaultWaitDelay
	}
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &osRunner{opts: opts}
}

func (r *osRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmdline := shellquote.Join(append([]string{name}, args...)...)
	log := r.opts.Logger.With(zap.String("command", cmdline))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = Environment(r.opts.Environ(), r.opts.Locale)
	cmd.WaitDelay = r.opts.WaitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, errors.Wrapf(ctxErr, "run %s", cmdline)
	}

	switch {
	case err == nil:
	case errors.Is(err, exec.ErrWaitDelay):
		// The child exited but something kept its pipes open.
		log.Warn("output pipes held open after exit", zap.Duration("wait_delay", r.opts.WaitDelay))
	default:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			err = errors.Wrapf(err, "run %s", cmdline)
			if errors.Is(err, exec.ErrNotFound) {
				err = errors.WithHintf(err, "install %s or set its path in the config file", name)
			}
			return res, err
		}
	}

	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	log.Debug("command finished",
		zap.Int("exit_code", res.ExitCode),
		zap.Int("stdout_bytes", len(res.Stdout)),
		zap.Int("stderr_bytes", len(res.Stderr)),
		zap.Duration("elapsed", time.Since(start)))

	return res, nil
}

// Environment returns base with every locale variable removed and
// LANG, LC_ALL and LC_MESSAGES set to locale.
func Environment(base []string, locale string) []string {
	env := make([]string, 0, len(base)+len(localeVars))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if key == "LANG" || key == "LANGUAGE" || strings.HasPrefix(key, "LC_") {
			continue
		}
		env = append(env, kv)
	}
	for _, key := range localeVars {
		env = append(env, key+"="+locale)
	}
	return env
}
