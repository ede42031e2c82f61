package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"horse.fit/partyplan/internal/db"
	"horse.fit/partyplan/internal/funtranslate"
	"horse.fit/partyplan/internal/globaltime"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
	// resumeBatchSize bounds how many pending events one ResumePending call re-queues.
	resumeBatchSize = 500
)

var (
	ErrQueueFull        = errors.New("translation queue is full")
	ErrDispatcherClosed = errors.New("translation dispatcher is closed")
)

// Job is one pending translation of an event description.
type Job struct {
	EventID    string
	SourceText string
	Category   string
	SourceLang string
}

// JobFor builds the translation job for a pending event.
func JobFor(event *db.Event) (Job, bool) {
	if event == nil || event.TranslationStatus != db.TranslationPending || event.Description == nil {
		return Job{}, false
	}
	job := Job{
		EventID:    event.EventID,
		SourceText: *event.Description,
	}
	if event.FunCategory != nil {
		job.Category = *event.FunCategory
	}
	if event.DescriptionLang != nil {
		job.SourceLang = *event.DescriptionLang
	}
	return job, true
}

// TranslationStore receives finished jobs. *db.Pool satisfies it.
type TranslationStore interface {
	ApplyEventTranslation(ctx context.Context, update db.EventTranslationUpdate) (bool, error)
	ListPendingTranslations(ctx context.Context, limit int) ([]db.Event, error)
}

var _ TranslationStore = (*db.Pool)(nil)

type DispatcherOptions struct {
	Workers   int
	QueueSize int
}

// Dispatcher runs translation jobs on a bounded worker pool, off the request path.
type Dispatcher struct {
	translator Translator
	store      TranslationStore
	logger     zerolog.Logger
	workers    int

	mu      sync.RWMutex
	jobs    chan Job
	closed  bool
	started bool
	done    chan struct{}
}

func NewDispatcher(translator Translator, store TranslationStore, logger zerolog.Logger, opts DispatcherOptions) *Dispatcher {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Dispatcher{
		translator: translator,
		store:      store,
		logger:     logger.With().Str("component", "translation_dispatcher").Logger(),
		workers:    workers,
		jobs:       make(chan Job, queueSize),
		done:       make(chan struct{}),
	}
}

// Start launches the workers. Jobs observe ctx; cancelling it abandons in-flight jobs,
// which stay pending in storage.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started || d.closed {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	d.logger.Info().Int("workers", d.workers).Int("queue_size", cap(d.jobs)).Msg("translation dispatcher started")

	go func() {
		defer close(d.done)
		p := pool.New().WithMaxGoroutines(d.workers)
		for job := range d.jobs {
			p.Go(func() {
				d.process(ctx, job)
			})
		}
		p.Wait()
	}()
}

// Submit queues a job without blocking.
func (d *Dispatcher) Submit(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops intake and waits for queued and in-flight jobs to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	alreadyClosed := d.closed
	if !alreadyClosed {
		d.closed = true
		close(d.jobs)
	}
	started := d.started
	d.mu.Unlock()

	if started {
		<-d.done
	}
	if !alreadyClosed {
		d.logger.Info().Msg("translation dispatcher stopped")
	}
}

// ResumePending re-queues events left pending by a restart or a full queue.
// It stops at the first full-queue rejection and returns how many jobs were queued.
func (d *Dispatcher) ResumePending(ctx context.Context) (int, error) {
	pending, err := d.store.ListPendingTranslations(ctx, resumeBatchSize)
	if err != nil {
		return 0, err
	}
	queued := 0
	for i := range pending {
		job, ok := JobFor(&pending[i])
		if !ok {
			continue
		}
		if err := d.Submit(job); err != nil {
			if errors.Is(err, ErrQueueFull) {
				d.logger.Warn().Int("queued", queued).Int("pending", len(pending)).Msg("translation queue full while resuming")
				return queued, nil
			}
			return queued, err
		}
		queued++
	}
	return queued, nil
}

func (d *Dispatcher) process(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	log := d.logger.With().Str("event_id", job.EventID).Str("category", job.Category).Logger()

	started := time.Now()
	sourceText := job.SourceText
	outcome := d.translator.Translate(ctx, funtranslate.Request{
		SourceText: &sourceText,
		Category:   job.Category,
		SourceLang: job.SourceLang,
	})
	if ctx.Err() != nil {
		log.Debug().Msg("dispatcher stopping; translation left pending")
		return
	}

	status := db.TranslationFallback
	if outcome.Applied {
		status = db.TranslationApplied
	}
	updated, err := d.store.ApplyEventTranslation(ctx, db.EventTranslationUpdate{
		EventID:        job.EventID,
		SourceText:     job.SourceText,
		Category:       job.Category,
		SourceLang:     job.SourceLang,
		TranslatedText: outcome.Text,
		Status:         status,
		TranslatedAt:   globaltime.UTC(),
	})
	if err != nil {
		log.Error().Err(err).Msg("store translation failed")
		return
	}
	if !updated {
		log.Debug().Msg("event changed or deleted since job was queued; translation discarded")
		return
	}

	log.Info().
		Str("translation_status", status).
		Str("failed_stage", string(outcome.FailedStage)).
		Dur("elapsed", time.Since(started)).
		Msg("event translation stored")
}
