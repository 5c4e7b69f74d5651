// Package scheduler drives recurring sync runs. One run fans out a goroutine
// per enabled object type, funnels their results through a single reducer,
// and stamps the completion time once every pipeline returns. At most one
// run is in flight; a tick that lands while a run is active is skipped, not
// queued.
package scheduler

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/jjpenad/cfma-acgi-integration/pkg/acgi"
	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
	"github.com/jjpenad/cfma-acgi-integration/pkg/config"
	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
	"github.com/jjpenad/cfma-acgi-integration/pkg/store"
	"github.com/jjpenad/cfma-acgi-integration/pkg/sync"
	"github.com/jjpenad/cfma-acgi-integration/pkg/syncerrors"
)

// StateStore is the slice of the record store the scheduler needs.
type StateStore interface {
	LoadSyncConfig(ctx context.Context) (store.SyncConfig, error)
	SaveSyncConfig(ctx context.Context, cfg store.SyncConfig) error
	RecordSuccessfulRun(ctx context.Context, at time.Time) error
}

// Queue is the source system's pending-update queue.
type Queue interface {
	FetchQueueUpdates(ctx context.Context) ([]acgi.QueueEntry, error)
	PurgeQueue(ctx context.Context, customerIDs []string) error
}

// RunSummary aggregates the per-object-type results of one run.
type RunSummary struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Results  []sync.Result
}

// TotalErrors counts errors across all pipelines.
func (s RunSummary) TotalErrors() int {
	n := 0
	for _, r := range s.Results {
		n += len(r.Errors)
	}
	return n
}

// Scheduler owns the run loop and the per-object-type pipeline instances.
type Scheduler struct {
	state   StateStore
	queue   Queue
	syncers map[common.ObjectType]*sync.Syncer
	log     *logger.Logger

	runMu     stdsync.Mutex // guards the one-run-in-flight invariant
	typeLocks map[common.ObjectType]*stdsync.Mutex

	stop chan struct{}
	done chan struct{}
}

// New creates a scheduler over one syncer per pipeline object type. The
// syncers may share a source client and event cache but each carries the
// destination client for its own credential.
func New(state StateStore, queue Queue, syncers map[common.ObjectType]*sync.Syncer, log *logger.Logger) *Scheduler {
	typeLocks := make(map[common.ObjectType]*stdsync.Mutex, len(common.PipelineObjectTypes))
	for _, objectType := range common.PipelineObjectTypes {
		typeLocks[objectType] = &stdsync.Mutex{}
	}
	return &Scheduler{
		state:     state,
		queue:     queue,
		syncers:   syncers,
		log:       log,
		typeLocks: typeLocks,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the scheduling loop until Stop is called or ctx is canceled.
// The interval is re-read from the persisted sync config every tick, so
// operator changes take effect without a restart.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	for {
		interval := s.currentInterval(ctx)
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-time.After(interval):
		}

		s.tick(ctx)
	}
}

// tick runs one scheduled pass. The run lock is taken before the source
// queue is consulted, so a tick that lands during an active run costs no
// queue round-trip.
func (s *Scheduler) tick(ctx context.Context) {
	cfg, err := s.state.LoadSyncConfig(ctx)
	if err != nil {
		s.log.Errorf("Failed to load sync config: %v", err)
		return
	}
	if !cfg.Enabled {
		s.log.Debug("Sync disabled, skipping tick")
		return
	}

	if !s.runMu.TryLock() {
		s.log.Warn("Previous run still in flight, skipping tick")
		return
	}
	defer s.runMu.Unlock()

	customerIDs, fromQueue, err := s.resolveCustomerIDs(ctx, cfg)
	if err != nil {
		s.log.Errorf("Failed to resolve customer ids: %v", err)
		return
	}
	if len(customerIDs) == 0 {
		s.log.Debug("No customers to sync, skipping tick")
		return
	}

	summary := s.run(ctx, cfg, customerIDs, fromQueue)
	s.log.Infof("Run %s finished in %v with %d errors",
		summary.RunID, summary.Duration.Round(time.Millisecond), summary.TotalErrors())
}

// Stop ends the loop and waits for any in-flight run to drain.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
	// Taking the run lock proves no run is still executing.
	s.runMu.Lock()
	s.runMu.Unlock()
}

func (s *Scheduler) currentInterval(ctx context.Context) time.Duration {
	cfg, err := s.state.LoadSyncConfig(ctx)
	if err != nil || cfg.IntervalMinutes <= 0 {
		if err != nil {
			s.log.Errorf("Failed to load sync config: %v", err)
		}
		return 15 * time.Minute
	}
	return time.Duration(cfg.IntervalMinutes) * time.Minute
}

// UpdateConfig validates and persists the scheduling state. The loop reads
// the config on every tick, so the change takes effect without a reinstall.
func (s *Scheduler) UpdateConfig(ctx context.Context, cfg store.SyncConfig) error {
	if !config.ValidInterval(cfg.IntervalMinutes) {
		return &syncerrors.ValidationError{
			Reason: fmt.Sprintf("invalid sync interval %d: allowed values are %v",
				cfg.IntervalMinutes, config.AllowedIntervals),
		}
	}
	return s.state.SaveSyncConfig(ctx, cfg)
}

// RunNow executes one full run immediately, for manual triggering and
// one-shot invocations. It shares the one-run-in-flight lock with the loop.
// An empty identifier set is a ValidationError rather than a silent no-op.
func (s *Scheduler) RunNow(ctx context.Context) (RunSummary, error) {
	cfg, err := s.state.LoadSyncConfig(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("failed to load sync config: %w", err)
	}

	customerIDs, fromQueue, err := s.resolveCustomerIDs(ctx, cfg)
	if err != nil {
		return RunSummary{}, fmt.Errorf("failed to resolve customer ids: %w", err)
	}
	if len(customerIDs) == 0 {
		return RunSummary{}, &syncerrors.ValidationError{Reason: "no customer ids configured and source queue is empty"}
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.run(ctx, cfg, customerIDs, fromQueue), nil
}

// run fans one goroutine out per enabled object type and reduces their
// results on a single channel reader.
func (s *Scheduler) run(ctx context.Context, cfg store.SyncConfig, customerIDs []string, fromQueue bool) RunSummary {
	summary := RunSummary{
		RunID:   uuid.NewString()[:8],
		Started: time.Now(),
	}
	log := s.log.WithRun(summary.RunID)

	enabled := cfg.EnabledObjectTypes()
	log.Infof("Starting run: %d customers, %d object types", len(customerIDs), len(enabled))

	results := make(chan sync.Result, len(enabled))
	var wg stdsync.WaitGroup
	for _, objectType := range enabled {
		syncer, ok := s.syncers[objectType]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(objectType common.ObjectType, syncer *sync.Syncer) {
			defer wg.Done()
			lock := s.typeLocks[objectType]
			lock.Lock()
			defer lock.Unlock()
			results <- syncer.SyncObjectType(ctx, objectType, customerIDs)
		}(objectType, syncer)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		summary.Results = append(summary.Results, result)
	}
	summary.Duration = time.Since(summary.Started)

	// A completed run is a successful run even when individual records
	// failed; a canceled run never completed and is not stamped.
	if ctx.Err() != nil {
		log.Warnf("Run canceled: %v", ctx.Err())
	} else if err := s.state.RecordSuccessfulRun(ctx, time.Now()); err != nil {
		log.Errorf("Failed to record run completion: %v", err)
	}
	// Queue entries survive until every record landed, so a partly failed
	// run retries them on the next tick.
	if fromQueue && s.queue != nil && summary.TotalErrors() == 0 {
		if err := s.queue.PurgeQueue(ctx, customerIDs); err != nil {
			log.Errorf("Failed to purge source queue: %v", err)
		}
	}
	return summary
}

// RunObjectType runs a single pipeline on demand. It takes that pipeline's
// lock, so a manual run and a scheduled run never write the same object type
// concurrently.
func (s *Scheduler) RunObjectType(ctx context.Context, objectType common.ObjectType, customerIDs []string) (sync.Result, error) {
	syncer, ok := s.syncers[objectType]
	if !ok {
		return sync.Result{}, fmt.Errorf("no pipeline for object type %s", objectType)
	}
	lock, ok := s.typeLocks[objectType]
	if !ok {
		return sync.Result{}, fmt.Errorf("no pipeline for object type %s", objectType)
	}

	lock.Lock()
	defer lock.Unlock()
	return syncer.SyncObjectType(ctx, objectType, customerIDs), nil
}

// resolveCustomerIDs returns the identifiers for a run: the operator's
// explicit list when present, otherwise the source system's pending-update
// queue. The boolean reports the queue case so the run can purge it after a
// clean finish.
func (s *Scheduler) resolveCustomerIDs(ctx context.Context, cfg store.SyncConfig) ([]string, bool, error) {
	if ids := cfg.ParseCustomerIDs(); len(ids) > 0 {
		return ids, false, nil
	}
	if s.queue == nil {
		return nil, false, nil
	}

	entries, err := s.queue.FetchQueueUpdates(ctx)
	if err != nil {
		return nil, false, err
	}

	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.CustID == "" {
			continue
		}
		if _, dup := seen[e.CustID]; dup {
			continue
		}
		seen[e.CustID] = struct{}{}
		ids = append(ids, e.CustID)
	}
	return ids, true, nil
}
