// Package watch monitors the inbox drop folder. Supported files that
// land there become anonymous generation jobs.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/plugnplai/relnotes/db"
	"github.com/plugnplai/relnotes/extract"
	"github.com/plugnplai/relnotes/log"
	"github.com/plugnplai/relnotes/notifications"
	"github.com/plugnplai/relnotes/workers/generate"
)

var logger = log.GetLogger("Watch")

// settleDelay is how long a file must stay unchanged before it is
// considered fully written. Large media files arrive in many writes.
const settleDelay = 2 * time.Second

// Watcher watches the inbox directory and queues jobs for dropped files
type Watcher struct {
	inboxDir  string
	worker    *generate.Worker
	notif     *notifications.Service
	fswatcher *fsnotify.Watcher
	debouncer *debouncer
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewWatcher creates an inbox watcher
func NewWatcher(inboxDir string, worker *generate.Worker, notifService *notifications.Service) *Watcher {
	w := &Watcher{
		inboxDir: inboxDir,
		worker:   worker,
		notif:    notifService,
		stopChan: make(chan struct{}),
	}
	w.debouncer = newDebouncer(DefaultDebounceDelay, w.processDebounced)
	return w
}

// Start begins watching the inbox directory
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.inboxDir, 0o755); err != nil {
		return err
	}

	var err error
	w.fswatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.fswatcher.Add(w.inboxDir); err != nil {
		w.fswatcher.Close()
		return err
	}

	w.wg.Add(1)
	go w.eventLoop()

	// Files dropped while the process was down get picked up here
	w.scanExisting()

	logger.Info().Str("dir", w.inboxDir).Msg("inbox watcher started")
	return nil
}

// scanExisting queues files already sitting in the inbox at startup
func (w *Watcher) scanExisting() {
	entries, err := os.ReadDir(w.inboxDir)
	if err != nil {
		logger.Error().Err(err).Msg("failed to scan inbox")
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".part") {
			continue
		}
		w.debouncer.Queue(filepath.Join(w.inboxDir, name), EventCreate)
	}
}

// Stop stops the watcher gracefully
func (w *Watcher) Stop() {
	if w.debouncer != nil {
		w.debouncer.Stop()
	}
	close(w.stopChan)
	if w.fswatcher != nil {
		w.fswatcher.Close()
	}
	w.wg.Wait()
	logger.Info().Msg("inbox watcher stopped")
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fswatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fswatcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("watcher error")

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	filename := filepath.Base(event.Name)

	// Hidden and partial files are ignored
	if strings.HasPrefix(filename, ".") || strings.HasSuffix(filename, ".part") {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			w.debouncer.Queue(event.Name, EventDelete)
		}
		return
	}
	if info.IsDir() {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		w.debouncer.Queue(event.Name, EventCreate)
	} else if event.Op&fsnotify.Write != 0 {
		w.debouncer.Queue(event.Name, EventWrite)
	}
}

func (w *Watcher) processDebounced(path string, eventType EventType) {
	if eventType == EventDelete {
		w.notif.NotifyInboxChanged()
		return
	}

	filename := filepath.Base(path)
	if !extract.IsSupportedFile(filename) {
		logger.Debug().Str("file", filename).Msg("ignoring unsupported inbox file")
		return
	}

	if !w.waitUntilSettled(path) {
		return
	}

	// Files in the inbox generate anonymously
	job, err := db.CreateJob(nil, filename, path)
	if err != nil {
		logger.Error().Err(err).Str("file", filename).Msg("failed to create inbox job")
		return
	}

	logger.Info().Str("file", filename).Str("job", job.ID).Msg("queued inbox file")
	w.worker.Enqueue(job.ID)
	w.notif.NotifyInboxChanged()
}

// waitUntilSettled blocks until the file size stops changing, so jobs
// are not created from half-copied files
func (w *Watcher) waitUntilSettled(path string) bool {
	var lastSize int64 = -1

	for i := 0; i < 30; i++ {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() == lastSize {
			return true
		}
		lastSize = info.Size()

		select {
		case <-w.stopChan:
			return false
		case <-time.After(settleDelay):
		}
	}

	return true
}
