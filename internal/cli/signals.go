package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
)

// SignalHandler cancels the run context on SIGINT or SIGTERM so an
// in-flight veeamconfig call is killed instead of orphaned.
type SignalHandler struct {
	signals  chan os.Signal
	stopCh   chan struct{} // closed by Stop to signal goroutine to exit
	done     chan struct{} // closed when goroutine exits
	stopOnce sync.Once
	cancel   context.CancelFunc
	log      *zap.Logger
}

// NewSignalHandler creates a signal handler with the given context cancel
func NewSignalHandler(cancel context.CancelFunc, log *zap.Logger) *SignalHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SignalHandler{
		signals: make(chan os.Signal, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		cancel:  cancel,
		log:     log,
	}
}

// Start begins listening for signals, optionally registering with OS signal handling.
// Pass false for notify in unit tests to avoid global signal state interactions.
func (h *SignalHandler) Start(notify bool) {
	if notify {
		signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM)
	}

	started := make(chan struct{})
	go func() {
		defer close(h.done)
		close(started)

		select {
		case sig := <-h.signals:
			h.log.Warn("received signal, cancelling", zap.Stringer("signal", sig))
			if h.cancel != nil {
				h.cancel()
			}
		case <-h.stopCh:
			return
		}
	}()

	<-started
}

// Stop stops the signal handler and waits for its goroutine to exit
func (h *SignalHandler) Stop() {
	signal.Stop(h.signals)
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
	<-h.done
}
