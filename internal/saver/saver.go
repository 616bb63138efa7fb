// Package saver implements the asynchronous save path for chart edits.
//
// The chart container hands over a full snapshot after every edit and
// does not wait. The Saver queues those snapshots and writes them from a
// single goroutine, in submission order, reporting each outcome on a
// results channel so the UI can show failures and offer a retry.
//
//	Container.OnSave → Submit → queue → writeLoop → Store.SaveChart → Results
//
// Revisions make the writes safe against reordering: the store drops any
// snapshot older than what it already holds.
package saver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
	"github.com/Mr-Dark-debug/odonto/internal/database"
)

// ErrQueueFull is reported when a snapshot cannot be queued.
var ErrQueueFull = errors.New("save queue full")

// ErrStopped is returned for snapshots submitted after Stop.
var ErrStopped = errors.New("saver stopped")

// Request is one snapshot to persist.
type Request struct {
	PatientID string
	Revision  int64
	State     chart.State
	SavedBy   string
}

// Result is the outcome of one Request. Stale is set when the store
// already held a newer revision; that is not an error.
type Result struct {
	PatientID string
	Revision  int64
	Stale     bool
	Err       error
	Duration  time.Duration
}

// Metrics tracks save throughput and failures.
type Metrics struct {
	Submitted int64 `json:"submitted"`
	Saved     int64 `json:"saved"`
	Stale     int64 `json:"stale"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	// Discarded counts results thrown away because nobody read them.
	Discarded int64 `json:"discarded"`
}

// Config holds saver tuning.
type Config struct {
	// QueueSize bounds the number of snapshots waiting to be written.
	QueueSize int `yaml:"queue_size"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{QueueSize: 64}
}

// Saver writes chart snapshots to a store in the background.
type Saver struct {
	config  Config
	store   database.Store
	log     *zap.Logger
	metrics Metrics

	queue   chan Request
	results chan Result

	mu        sync.Mutex
	publishMu sync.Mutex
	stopped   bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// New creates a saver. A nil logger disables logging.
func New(config Config, store database.Store, log *zap.Logger) *Saver {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Saver{
		config:  config,
		store:   store,
		log:     log,
		queue:   make(chan Request, config.QueueSize),
		results: make(chan Result, config.QueueSize+1),
	}
}

// Start launches the writer goroutine.
func (s *Saver) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.writeLoop(ctx)
}

// Stop writes the snapshots still queued, stops the writer and closes
// Results. Snapshots still queued when the Start context is cancelled are
// not written.
func (s *Saver) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	if s.cancel != nil {
		s.cancel()
	}
	close(s.results)
}

// Submit queues a snapshot without blocking. When the queue is full a
// failed Result is also published so the UI sees it like any other
// failure. After Stop it returns ErrStopped and publishes nothing.
func (s *Saver) Submit(req Request) error {
	atomic.AddInt64(&s.metrics.Submitted, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		atomic.AddInt64(&s.metrics.Dropped, 1)
		return ErrStopped
	}

	select {
	case s.queue <- req:
		return nil
	default:
		atomic.AddInt64(&s.metrics.Dropped, 1)
		s.log.Warn("save queue full, snapshot dropped",
			zap.String("patient", req.PatientID), zap.Int64("revision", req.Revision))
		s.publish(Result{PatientID: req.PatientID, Revision: req.Revision, Err: ErrQueueFull})
		return ErrQueueFull
	}
}

// Results delivers one Result per written (or dropped) snapshot. It is
// closed by Stop.
func (s *Saver) Results() <-chan Result { return s.results }

// Metrics returns a snapshot of the counters.
func (s *Saver) Metrics() Metrics {
	return Metrics{
		Submitted: atomic.LoadInt64(&s.metrics.Submitted),
		Saved:     atomic.LoadInt64(&s.metrics.Saved),
		Stale:     atomic.LoadInt64(&s.metrics.Stale),
		Failed:    atomic.LoadInt64(&s.metrics.Failed),
		Dropped:   atomic.LoadInt64(&s.metrics.Dropped),
		Discarded: atomic.LoadInt64(&s.metrics.Discarded),
	}
}

func (s *Saver) writeLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case req, ok := <-s.queue:
			if !ok {
				return
			}
			s.publish(s.write(req))
		case <-ctx.Done():
			return
		}
	}
}

func (s *Saver) write(req Request) Result {
	start := time.Now()
	res := Result{PatientID: req.PatientID, Revision: req.Revision}

	applied, err := s.store.SaveChart(database.ChartSave{
		PatientID: req.PatientID,
		Revision:  req.Revision,
		State:     req.State,
		SavedBy:   req.SavedBy,
	})
	res.Duration = time.Since(start)

	switch {
	case err != nil:
		atomic.AddInt64(&s.metrics.Failed, 1)
		res.Err = fmt.Errorf("saving chart of patient %s rev %d: %w", req.PatientID, req.Revision, err)
		s.log.Error("chart save failed", zap.Error(res.Err))
	case !applied:
		atomic.AddInt64(&s.metrics.Stale, 1)
		res.Stale = true
		s.log.Debug("stale chart snapshot ignored",
			zap.String("patient", req.PatientID), zap.Int64("revision", req.Revision))
	default:
		atomic.AddInt64(&s.metrics.Saved, 1)
		s.log.Debug("chart saved",
			zap.String("patient", req.PatientID), zap.Int64("revision", req.Revision),
			zap.Duration("took", res.Duration))
	}
	return res
}

// publish never blocks the writer. When nobody reads results and the
// buffer is full, the oldest success is discarded to make room; a failure
// is only discarded when every buffered result is a failure.
func (s *Saver) publish(res Result) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	select {
	case s.results <- res:
		return
	default:
	}

	pending := make([]Result, 0, cap(s.results)+1)
drain:
	for {
		select {
		case r := <-s.results:
			pending = append(pending, r)
		default:
			break drain
		}
	}
	pending = append(pending, res)

	drop := 0
	for i, r := range pending {
		if r.Err == nil {
			drop = i
			break
		}
	}
	if len(pending) > cap(s.results) {
		dropped := pending[drop]
		pending = append(pending[:drop], pending[drop+1:]...)
		atomic.AddInt64(&s.metrics.Discarded, 1)
		if dropped.Err != nil {
			s.log.Error("unread save failure discarded",
				zap.String("patient", dropped.PatientID), zap.Int64("revision", dropped.Revision),
				zap.Error(dropped.Err))
		}
	}

	for _, r := range pending {
		select {
		case s.results <- r:
		default:
			atomic.AddInt64(&s.metrics.Discarded, 1)
		}
	}
}
