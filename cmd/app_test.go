package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/froyo-dl/froyo/internal/engine"
)

func TestJobTrackerSettles(t *testing.T) {
	tr := newJobTracker()
	tr.expect(engine.ActionLoadWork)
	tr.expect(engine.ActionLoadWork)
	tr.expect(engine.ActionLoadSeries)

	done := make(chan struct{})
	go func() {
		tr.wait()
		close(done)
	}()

	tr.settle(engine.Event{Action: engine.ActionLoadWork, Status: engine.StatusOK})
	tr.settle(engine.Event{Action: engine.ActionLoadSeries, Status: engine.StatusError})

	select {
	case <-done:
		t.Fatal("wait returned with a job still outstanding")
	case <-time.After(50 * time.Millisecond):
	}

	tr.settle(engine.Event{Action: engine.ActionLoadWork, Status: engine.StatusOK})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not return after all jobs settled")
	}
}

func TestJobTrackerRetryKeepsToken(t *testing.T) {
	tr := newJobTracker()
	tr.expect(engine.ActionLoadWork)

	tr.settle(engine.Event{Action: engine.ActionLoadWork, Status: engine.StatusRetry})
	assert.Equal(t, 1, tr.total)

	tr.settle(engine.Event{Action: engine.ActionLoadWork, Status: engine.StatusOK})
	assert.Equal(t, 0, tr.total)
}

func TestJobTrackerIgnoresUnmatchedEvents(t *testing.T) {
	tr := newJobTracker()
	tr.expect(engine.ActionDownloadWork)

	// A download loading its work inline reports a LoadWork event that no
	// enqueue preceded; it must not drive the count negative.
	tr.settle(engine.Event{Action: engine.ActionLoadWork, Status: engine.StatusOK})
	assert.Equal(t, 1, tr.total)

	tr.settle(engine.Event{Action: engine.ActionDownloadWork, Status: engine.StatusOK})
	assert.Equal(t, 0, tr.total)
}

func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "https://archiveofourown.org/works/1\n" +
		"\n" +
		"# a comment\n" +
		"  https://archiveofourown.org/works/2  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	urls, err := readURLsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://archiveofourown.org/works/1",
		"https://archiveofourown.org/works/2",
	}, urls)
}

func TestReadURLsFromFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("# only comments\n"), 0o644))

	_, err := readURLsFromFile(path)
	assert.Error(t, err)
}

func TestInstanceLockExcludes(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, acquireLock(dir))
	t.Cleanup(releaseLock)

	// The lock file must exist while held.
	_, err := os.Stat(filepath.Join(dir, "froyo.lock"))
	assert.NoError(t, err)
}
