package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/froyo-dl/froyo/internal/engine"
	"github.com/froyo-dl/froyo/internal/logging"
	"github.com/froyo-dl/froyo/internal/tui"
)

// app wires one engine run for a CLI invocation: logging, the single
// instance lock, job tracking, and optionally the TUI.
type app struct {
	baseDir  string
	log      *log.Logger
	logClose io.Closer
	engine   *engine.Engine
	tracker  *jobTracker
	ui       *tui.UI
	loadOnly bool
}

// newApp builds the engine and registers the observers the CLI needs. The
// caller must close() it.
func newApp(cmd *cobra.Command) (*app, error) {
	baseDir, _ := cmd.Flags().GetString("base-dir")
	if baseDir == "" {
		var err error
		baseDir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}

	logger, logClose, err := logging.New(baseDir)
	if err != nil {
		return nil, err
	}

	if err := acquireLock(baseDir); err != nil {
		logClose.Close()
		return nil, err
	}

	a := &app{
		baseDir:  baseDir,
		log:      logger,
		logClose: logClose,
		tracker:  newJobTracker(),
	}
	a.loadOnly, _ = cmd.Flags().GetBool("load-only")
	if withTUI, _ := cmd.Flags().GetBool("tui"); withTUI {
		a.ui = tui.New()
		// The TUI owns the terminal; keep the console half of the log out
		// of its way.
		logger.SetOutput(io.Discard)
	}

	eng, err := engine.New(engine.Options{BaseDir: baseDir, Logger: logger})
	if err != nil {
		releaseLock()
		logClose.Close()
		return nil, err
	}
	a.engine = eng
	a.register()
	return a, nil
}

// register installs the observers: every enqueue opens a tracker token,
// every terminal after-action closes one, and the TUI (when present) gets a
// copy of everything.
func (a *app) register() {
	allActions := []engine.Action{
		engine.ActionLoadWork,
		engine.ActionDownloadWork,
		engine.ActionLoadSeries,
		engine.ActionLoadUserWorks,
		engine.ActionLoadUserBookmarks,
		engine.ActionLoadResultsList,
		engine.ActionLoadResultsPage,
		engine.ActionLogin,
	}

	enqueue := make(map[engine.Action]engine.Callbacks, len(allActions))
	action := make(map[engine.Action]engine.Callbacks, len(allActions))
	for _, act := range allActions {
		// The token must exist before the task hits the queue, or a fast
		// worker could settle it first.
		enqueue[act] = engine.Callbacks{Before: func(ev engine.Event) {
			a.tracker.expect(ev.Action)
			if a.ui != nil {
				a.ui.OnEnqueue(ev)
			}
		}}
		action[act] = engine.Callbacks{
			Before: func(ev engine.Event) {
				if a.ui != nil {
					a.ui.OnBefore(ev)
				}
			},
			After: func(ev engine.Event) {
				a.tracker.settle(ev)
				if a.ui != nil {
					a.ui.OnAfter(ev)
				}
			},
		}
	}
	a.engine.SetEnqueueCallbacks(enqueue)
	a.engine.SetActionCallbacks(action)
}

func (a *app) close() {
	a.engine.Stop()
	releaseLock()
	a.logClose.Close()
}

// run executes stage on the app, either headless or under the TUI.
func run(cmd *cobra.Command, stage func(*app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if a.ui == nil {
		return a.sequence(stage)
	}

	errc := make(chan error, 1)
	go func() {
		err := a.sequence(stage)
		if err != nil {
			// Tear the screen down so the error is readable.
			a.ui.Quit()
		}
		errc <- err
	}()
	if err := a.ui.Run(); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	default:
		// User quit while jobs were still running; close() tears them down.
		return nil
	}
}

// sequence is the CLI's job flow: log in if settings carry credentials,
// stage the command's jobs, wait for loads to settle, then download unless
// --load-only was given.
func (a *app) sequence(stage func(*app) error) error {
	if err := a.autoLogin(); err != nil {
		return err
	}
	if err := stage(a); err != nil {
		return err
	}
	if err := a.waitIdle(); err != nil {
		return err
	}

	if !a.loadOnly {
		a.engine.DownloadAll()
		if err := a.waitIdle(); err != nil {
			return err
		}
	}
	return nil
}

// autoLogin authenticates when settings.ini carries credentials. A failed
// login is terminal: downloading restricted works as a guest would silently
// produce the wrong results.
func (a *app) autoLogin() error {
	settings := a.engine.Config()
	if settings.Username == "" || settings.Password == "" {
		return nil
	}

	a.engine.Login(settings.Username, settings.Password)
	if err := a.waitIdle(); err != nil {
		return err
	}
	if !a.engine.IsAuthed() {
		return fmt.Errorf("login failed for %q; check the credentials in settings.ini", settings.Username)
	}
	return nil
}

// waitIdle blocks until every tracked job has settled, or the user
// interrupts.
func (a *app) waitIdle() error {
	done := make(chan struct{})
	go func() {
		a.tracker.wait()
		close(done)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-done:
		return nil
	case <-sig:
		return fmt.Errorf("interrupted")
	}
}

// jobTracker counts outstanding jobs per action so commands can wait for
// the queue to settle. Retries keep their token; only OK and ERROR close
// one. Tokens are per action, not per identifier: the CLI's phases never
// overlap same-action jobs it isn't waiting on.
type jobTracker struct {
	mu   sync.Mutex
	cond *sync.Cond

	outstanding map[engine.Action]int
	total       int
}

func newJobTracker() *jobTracker {
	t := &jobTracker{outstanding: make(map[engine.Action]int)}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *jobTracker) expect(a engine.Action) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outstanding[a]++
	t.total++
}

func (t *jobTracker) settle(ev engine.Event) {
	if ev.Status == engine.StatusRetry {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	// Events without a matching token come from nested observer pairs
	// (a download loading its work inline); they settle nothing.
	if t.outstanding[ev.Action] == 0 {
		return
	}
	t.outstanding[ev.Action]--
	t.total--
	if t.total == 0 {
		t.cond.Broadcast()
	}
}

func (t *jobTracker) wait() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.total > 0 {
		t.cond.Wait()
	}
}
