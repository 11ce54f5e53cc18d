package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner builds a playlist once.
type Runner interface {
	Run(ctx context.Context) (*Result, error)
}

// Refresher periodically rebuilds the playlist.
type Refresher struct {
	log      logrus.FieldLogger
	runner   Runner
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	last   *Result
}

// NewRefresher creates a new playlist refresher.
func NewRefresher(log logrus.FieldLogger, runner Runner, interval time.Duration) *Refresher {
	return &Refresher{
		log:      log.WithField("component", "refresher"),
		runner:   runner,
		interval: interval,
	}
}

// Start begins the refresh loop.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return nil // Already running
	}

	refreshCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(refreshCtx, r.done)

	r.log.WithField("interval", r.interval).Info("Playlist refresher started")

	return nil
}

// Stop stops the refresh loop and waits for an in-flight rebuild to finish.
func (r *Refresher) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()

		if done != nil {
			<-done
		}
	}

	r.log.Info("Playlist refresher stopped")

	return nil
}

// Last returns the result of the most recent successful rebuild.
func (r *Refresher) Last() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.last
}

func (r *Refresher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	r.log.Info("Rebuilding playlist")

	result, err := r.runner.Run(ctx)
	if err != nil {
		r.log.WithError(err).Error("Failed to rebuild playlist, keeping previous one")

		return
	}

	r.mu.Lock()
	r.last = result
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"run":     result.RunID,
		"written": result.Written,
		"empty":   result.Empty,
	}).Info("Playlist rebuilt")
}
