// Package generate runs queued release notes jobs in the background.
package generate

import (
	"context"
	"sync"
	"time"

	"github.com/plugnplai/relnotes/db"
	"github.com/plugnplai/relnotes/log"
	"github.com/plugnplai/relnotes/notifications"
)

var logger = log.GetLogger("GenerateWorker")

// staleJobThreshold is how long a job may sit in-progress before the
// supervisor assumes its worker died and requeues it
const staleJobThreshold = 10 * time.Minute

// Worker manages background release notes generation
type Worker struct {
	cfg       Config
	processor *Processor
	notif     *notifications.Service

	stopChan   chan struct{}
	wg         sync.WaitGroup
	queue      chan string
	processing sync.Map // job ids currently being processed
}

// NewWorker creates a new generation worker
func NewWorker(cfg Config, processor *Processor, notifService *notifications.Service) *Worker {
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}
	if cfg.Workers == 0 {
		cfg.Workers = 3
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 90 * time.Second
	}

	return &Worker{
		cfg:       cfg,
		processor: processor,
		notif:     notifService,
		stopChan:  make(chan struct{}),
		queue:     make(chan string, cfg.QueueSize),
	}
}

// Start begins processing jobs
func (w *Worker) Start() {
	logger.Info().Int("workers", w.cfg.Workers).Msg("starting generation worker")

	// Jobs left in-progress by a previous run go back to todo
	if n, err := db.ResetStaleJobs(db.NowMs()); err != nil {
		logger.Error().Err(err).Msg("failed to reset stale jobs")
	} else if n > 0 {
		logger.Info().Int64("jobs", n).Msg("requeued jobs from previous run")
	}

	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go w.processLoop()
	}

	w.wg.Add(1)
	go w.supervisorLoop()
}

// Stop stops the generation worker
func (w *Worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
	logger.Info().Msg("generation worker stopped")
}

// Enqueue queues a job for processing
func (w *Worker) Enqueue(jobID string) {
	select {
	case w.queue <- jobID:
		logger.Debug().Str("job", jobID).Msg("queued job")
	default:
		logger.Warn().Str("job", jobID).Msg("job queue full, waiting for supervisor")
	}
}

// processLoop processes jobs from the queue
func (w *Worker) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case jobID := <-w.queue:
			w.processJob(jobID)
		case <-w.stopChan:
			return
		}
	}
}

// processJob runs one job end to end
func (w *Worker) processJob(jobID string) {
	if _, loaded := w.processing.LoadOrStore(jobID, true); loaded {
		logger.Debug().Str("job", jobID).Msg("already processing, skipping")
		return
	}
	defer w.processing.Delete(jobID)

	job, err := db.GetJobByID(jobID)
	if err != nil || job == nil {
		logger.Error().Err(err).Str("job", jobID).Msg("job not found")
		return
	}
	if job.Status != db.JobStatusTodo {
		logger.Debug().Str("job", jobID).Str("status", job.Status).Msg("job not pending, skipping")
		return
	}

	if err := db.SetJobInProgress(jobID); err != nil {
		logger.Error().Err(err).Str("job", jobID).Msg("failed to mark job in-progress")
		return
	}
	w.notif.NotifyJobUpdated(jobID, db.JobStatusInProgress)

	logger.Info().Str("job", jobID).Str("file", job.Filename).Msg("processing job")

	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.RequestTimeout)
	defer cancel()

	release, err := w.processor.ProcessFile(ctx, job.UserID, job.Filename, job.SourcePath)
	if err != nil {
		logger.Error().Err(err).Str("job", jobID).Msg("job failed")
		if dbErr := db.SetJobError(jobID, err.Error()); dbErr != nil {
			logger.Error().Err(dbErr).Str("job", jobID).Msg("failed to record job error")
		}
		updated, _ := db.GetJobByID(jobID)
		status := db.JobStatusFailed
		if updated != nil {
			status = updated.Status
		}
		w.notif.NotifyJobUpdated(jobID, status)
		return
	}

	if err := db.SetJobCompleted(jobID, release.ID); err != nil {
		logger.Error().Err(err).Str("job", jobID).Msg("failed to mark job completed")
		return
	}

	logger.Info().Str("job", jobID).Str("release", release.ID).Msg("job completed")
	w.notif.NotifyJobUpdated(jobID, db.JobStatusCompleted)
	w.notif.NotifyReleaseCreated(release.ID, release.Filename)
}

// supervisorLoop periodically requeues pending jobs so nothing is lost
// when the queue drops an enqueue or the process restarts
func (w *Worker) supervisorLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.checkPendingJobs()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Worker) checkPendingJobs() {
	if n, err := db.ResetStaleJobs(db.NowMs() - staleJobThreshold.Milliseconds()); err == nil && n > 0 {
		logger.Warn().Int64("jobs", n).Msg("requeued stale in-progress jobs")
	}

	ids, err := db.GetPendingJobIDs(100)
	if err != nil {
		logger.Error().Err(err).Msg("failed to query pending jobs")
		return
	}

	for _, id := range ids {
		if _, busy := w.processing.Load(id); busy {
			continue
		}
		select {
		case w.queue <- id:
		default:
			return
		}
	}
}
