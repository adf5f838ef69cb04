// Package engine runs the asynchronous job machinery behind the tool: a
// shared action queue drained by a fixed worker pool, a work cache and
// active set, exponential back-off retries for rate-limited actions, and an
// observer protocol that lets a front-end watch every transition.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/froyo-dl/froyo/internal/archive"
	"github.com/froyo-dl/froyo/internal/config"
	"github.com/froyo-dl/froyo/internal/logging"
)

// dataDirName is the per-user state directory under the base directory.
const dataDirName = "data"

// maxWorkers caps the pool regardless of the configured concurrency limit.
const maxWorkers = 50

// Options configures a new Engine.
type Options struct {
	// BaseDir is where settings.ini, log.txt, and the data directory live.
	BaseDir string

	// ArchiveURL overrides the archive endpoint, mainly for tests.
	ArchiveURL string

	// Logger defaults to a discard logger.
	Logger *log.Logger

	// InitialRetryDelay overrides the 10s first back-off, for tests.
	InitialRetryDelay time.Duration
}

// Engine owns the queue, workers, cache, and retry state. Construct with
// New, shut down with Stop.
type Engine struct {
	baseDir string
	log     *log.Logger
	client  *archive.Client

	confMu   sync.Mutex
	settings config.Settings

	queue   *actionQueue
	cache   *workCache
	active  *activeSet
	retries *retrier

	enqueueObservers *observerSet
	actionObservers  *observerSet

	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
	closed  atomic.Bool
}

// New builds an engine rooted at opts.BaseDir: containers first, then the
// data directory, a guest session, settings (written with defaults if the
// file is missing), optional request pacing, and finally the worker pool.
// It does not log in; callers enqueue a Login action if they want one.
func New(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	e := &Engine{
		baseDir:          opts.BaseDir,
		log:              logger,
		queue:            newActionQueue(),
		cache:            newWorkCache(),
		active:           newActiveSet(),
		enqueueObservers: newObserverSet(),
		actionObservers:  newObserverSet(),
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.retries = newRetrier(opts.InitialRetryDelay, e.queue.push, logger)

	if err := os.MkdirAll(filepath.Join(e.baseDir, dataDirName), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	settings, err := config.Load(e.baseDir, logger)
	if err != nil {
		return nil, err
	}
	e.settings = settings

	client, err := archive.NewClient(archive.Options{
		BaseURL:   opts.ArchiveURL,
		RateLimit: settings.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	e.client = client

	n := workerCount(settings)
	e.workers.Add(n)
	for i := 0; i < n; i++ {
		go e.worker(i)
	}
	logger.Info("engine started", "workers", n, "base", e.baseDir)

	return e, nil
}

// workerCount derives the pool size from the settings: one worker when
// threading is off, otherwise the concurrency limit clamped to [1, 50].
func workerCount(settings config.Settings) int {
	if !settings.UseThreading || settings.ConcurrencyLimit == 1 {
		return 1
	}
	return min(max(settings.ConcurrencyLimit, 1), maxWorkers)
}

// worker drains the queue until it sees the shutdown sentinel, which it
// pushes back so its siblings terminate too.
func (e *Engine) worker(n int) {
	defer e.workers.Done()
	logger := e.log.With("worker", n)

	for {
		t := e.queue.pop()
		if t.action == actionSentinel {
			e.queue.push(t)
			return
		}

		// A missing active-set entry means the user removed the work after
		// this task was queued; it is dropped without side effects.
		if t.action.workScoped() && !e.active.contains(t.workID) {
			logger.Debug("dropping task for removed work", "action", t.action, "work", t.workID)
			continue
		}

		e.actionObservers.runBefore(t.event())
		status, ev := e.dispatch(t)

		// Re-check: removal during the handler suppresses retries and the
		// after-action observer as well.
		if t.action.workScoped() && !e.active.contains(t.workID) {
			logger.Debug("work removed mid-action", "action", t.action, "work", t.workID)
			continue
		}

		switch status {
		case StatusRetry:
			delay := e.retries.delay(t)
			e.retries.schedule(t, delay)
			ev.Err = fmt.Sprintf("Hit rate limit, trying again in %ds...", int(delay/time.Second))
		case StatusOK:
			e.retries.cancel(t)
		}

		e.actionObservers.runAfter(ev)
	}
}

// Stop shuts the engine down: in-flight HTTP is cancelled, one sentinel
// terminates the pool, and every retry timer is cancelled and awaited. After
// Stop returns no handler, observer callback, or retry fires again.
func (e *Engine) Stop() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.log.Info("shutting down workers")

	e.cancel()
	e.queue.push(task{action: actionSentinel})
	e.active.clear()
	e.cache.clear()
	e.workers.Wait()
	e.retries.cancelAll()
}

// Config returns a copy of the current settings.
func (e *Engine) Config() config.Settings {
	e.confMu.Lock()
	defer e.confMu.Unlock()
	return e.settings
}

// Session returns the client's current session.
func (e *Engine) Session() *archive.Session { return e.client.Session() }

// IsAuthed reports whether the current session is logged in.
func (e *Engine) IsAuthed() bool { return e.client.Session().Authed() }

// Login enqueues an authentication attempt. The outcome is delivered through
// the Login action observers.
func (e *Engine) Login(username, password string) {
	e.enqueue(task{action: ActionLogin, user: username, password: password})
}

// Logout reverts the session to guest.
func (e *Engine) Logout() {
	e.client.Logout()
	e.log.Info("logged out")
}

// GetSettings re-reads settings.ini and returns the result.
func (e *Engine) GetSettings() (config.Settings, error) {
	settings, err := config.Load(e.baseDir, e.log)
	if err != nil {
		return settings, err
	}
	e.confMu.Lock()
	e.settings = settings
	e.confMu.Unlock()
	return settings, nil
}

// UpdateSettings replaces the settings and persists them. Worker count and
// request pacing are fixed at construction; changes to those take effect on
// the next engine.
func (e *Engine) UpdateSettings(settings config.Settings) error {
	e.confMu.Lock()
	e.settings = settings
	e.confMu.Unlock()
	return config.Save(e.baseDir, settings)
}

// Remove unstages a work: queued and in-flight tasks for it are dropped, and
// armed retries are cancelled.
func (e *Engine) Remove(id int64) {
	e.active.remove(id)
	e.cache.remove(id)
	e.retries.cancelWork(id)
}

// RemoveAll unstages every work.
func (e *Engine) RemoveAll() {
	e.active.clear()
	e.cache.clear()
	e.retries.cancelAll()
}

// DownloadWork enqueues a download for one staged work.
func (e *Engine) DownloadWork(id int64) {
	e.ensureDownloadDir()
	e.enqueueWork(id, ActionDownloadWork)
}

// DownloadAll enqueues downloads for every staged work.
func (e *Engine) DownloadAll() {
	e.ensureDownloadDir()
	for _, id := range e.active.list() {
		e.enqueueWork(id, ActionDownloadWork)
	}
}

// LoadWorksFromWorkURLs stages and loads every valid work URL; invalid URLs
// are logged and skipped.
func (e *Engine) LoadWorksFromWorkURLs(urls []string) {
	for _, rawurl := range urls {
		id, ok := archive.WorkID(rawurl)
		if !ok {
			e.log.Error("not a valid work url, skipping", "url", rawurl)
			continue
		}
		e.enqueueWork(id, ActionLoadWork)
	}
}

// LoadWorksFromSeriesURLs loads every work of every valid series URL.
func (e *Engine) LoadWorksFromSeriesURLs(urls []string) {
	for _, rawurl := range urls {
		id, ok := archive.SeriesID(rawurl)
		if !ok {
			e.log.Error("not a valid series url, skipping", "url", rawurl)
			continue
		}
		e.log.Info("loading works from series", "series", id)
		e.enqueue(task{action: ActionLoadSeries, seriesID: id})
	}
}

// LoadWorksByUsernames loads the posted works of each user.
func (e *Engine) LoadWorksByUsernames(usernames []string) {
	for _, user := range usernames {
		e.enqueue(task{action: ActionLoadUserWorks, user: user})
	}
}

// LoadBookmarksByUsernames loads the public bookmarks of each user.
func (e *Engine) LoadBookmarksByUsernames(usernames []string) {
	for _, user := range usernames {
		e.enqueue(task{action: ActionLoadUserBookmarks, user: user})
	}
}

// LoadSelfBookmarks loads the session user's own bookmarks. It requires an
// authenticated session.
func (e *Engine) LoadSelfBookmarks() error {
	session := e.client.Session()
	if !session.Authed() {
		return fmt.Errorf("loading own bookmarks requires login")
	}
	e.enqueue(task{action: ActionLoadUserBookmarks, user: session.Username()})
	return nil
}

// LoadWorksFromGenericURL loads the works found on pages start..end of an
// archive listing (tag pages, search results). end == 0 means every page.
func (e *Engine) LoadWorksFromGenericURL(rawurl string, start, end int) error {
	if _, err := e.client.NormalizeListingURL(rawurl, 0); err != nil {
		return err
	}
	e.enqueue(task{action: ActionLoadResultsList, url: rawurl, pageStart: start, pageEnd: end})
	return nil
}

// SetEnqueueCallbacks registers before/after callbacks fired around
// enqueueing, per action.
func (e *Engine) SetEnqueueCallbacks(callbacks map[Action]Callbacks) {
	e.enqueueObservers.set(callbacks)
}

// SetActionCallbacks registers before/after callbacks fired around handler
// dispatch, per action.
func (e *Engine) SetActionCallbacks(callbacks map[Action]Callbacks) {
	e.actionObservers.set(callbacks)
}

// enqueue pushes a non-work-scoped task, bracketed by the enqueue observers.
func (e *Engine) enqueue(t task) {
	if e.closed.Load() {
		return
	}
	ev := t.event()
	e.enqueueObservers.runBefore(ev)
	e.queue.push(t)
	e.enqueueObservers.runAfter(ev)
}

// enqueueWork stages a work ID and pushes a task for it, bracketed by the
// enqueue observers. All work-scoped tasks go through here so that staging
// and queueing stay in step.
func (e *Engine) enqueueWork(id int64, action Action) {
	if e.closed.Load() {
		return
	}
	e.active.add(id)

	ev := Event{Action: action, WorkID: id}
	e.enqueueObservers.runBefore(ev)
	e.queue.push(task{action: action, workID: id})
	e.enqueueObservers.runAfter(ev)
}

// ensureDownloadDir creates the session user's download directory.
func (e *Engine) ensureDownloadDir() {
	dir := filepath.Join(e.Config().DownloadsDir, e.client.Session().Username())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.log.Error("creating download directory", "dir", dir, "err", err)
	}
}
