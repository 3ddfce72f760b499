package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/RevCBH/veeamjob/internal/executor"
)

// StubRunner is an executor.Runner that answers from canned responses
// keyed on the space-joined argument list (the command name excluded).
type StubRunner struct {
	mu       sync.Mutex
	stubs    map[string][]stubResponse
	defaults map[string]stubResponse
	calls    []string
	commands []string
}

type stubResponse struct {
	res executor.Result
	err error
}

func NewStubRunner() *StubRunner {
	return &StubRunner{
		stubs:    make(map[string][]stubResponse),
		defaults: make(map[string]stubResponse),
	}
}

// Stub queues a response for one call with args.
func (s *StubRunner) Stub(args string, res executor.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs[args] = append(s.stubs[args], stubResponse{res: res, err: err})
}

// StubOK queues a zero-exit response with stdout.
func (s *StubRunner) StubOK(args, stdout string) {
	s.Stub(args, executor.Result{Stdout: []byte(stdout)}, nil)
}

// StubFail queues a nonzero-exit response with stderr.
func (s *StubRunner) StubFail(args string, exitCode int, stderr string) {
	s.Stub(args, executor.Result{ExitCode: exitCode, Stderr: []byte(stderr)}, nil)
}

// StubDefault answers every call with args that has no queued response.
func (s *StubRunner) StubDefault(args string, res executor.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[args] = stubResponse{res: res, err: err}
}

func (s *StubRunner) Run(ctx context.Context, name string, args ...string) (executor.Result, error) {
	key := strings.Join(args, " ")
	s.mu.Lock()
	s.calls = append(s.calls, key)
	s.commands = append(s.commands, name)
	queue := s.stubs[key]
	if len(queue) == 0 {
		if resp, ok := s.defaults[key]; ok {
			s.mu.Unlock()
			return resp.res, resp.err
		}
		s.mu.Unlock()
		return executor.Result{}, fmt.Errorf("unexpected %s call: %s", name, key)
	}
	resp := queue[0]
	s.stubs[key] = queue[1:]
	s.mu.Unlock()
	return resp.res, resp.err
}

// Calls returns every call made so far, in order.
func (s *StubRunner) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Commands returns the command name of every call, in order.
func (s *StubRunner) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *StubRunner) CallsFor(args ...string) int {
	key := strings.Join(args, " ")
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, call := range s.calls {
		if call == key {
			count++
		}
	}
	return count
}

var _ executor.Runner = (*StubRunner)(nil)
