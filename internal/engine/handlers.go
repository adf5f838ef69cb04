package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/froyo-dl/froyo/internal/archive"
	"github.com/froyo-dl/froyo/internal/utils"
)

// errUserNotFound is the message reported when a user-scoped load targets a
// username the archive does not know.
const errUserNotFound = "User does not exist"

// dispatch runs the handler for t and returns its status plus the event for
// the after-action observer.
func (e *Engine) dispatch(t task) (Status, Event) {
	ev := t.event()
	var status Status

	switch t.action {
	case ActionLoadWork:
		status = e.loadWork(t, &ev)
	case ActionDownloadWork:
		status = e.downloadWork(t, &ev)
	case ActionLoadSeries:
		status = e.loadSeries(t, &ev)
	case ActionLoadUserWorks:
		status = e.loadUserWorks(t, &ev)
	case ActionLoadUserBookmarks:
		status = e.loadUserBookmarks(t, &ev)
	case ActionLoadResultsList:
		status = e.loadResultsList(t, &ev)
	case ActionLoadResultsPage:
		status = e.loadResultsPage(t, &ev)
	case ActionLogin:
		status = e.login(t, &ev)
	}

	ev.Status = status
	return status, ev
}

// loadWork fetches a work's metadata into the cache. An already-loaded cache
// entry is returned as-is.
func (e *Engine) loadWork(t task, ev *Event) Status {
	item := e.cache.get(t.workID)
	if item != nil && item.Loaded() {
		e.log.Info("work already loaded, skipping", "work", t.workID)
		ev.WorkItem = item
		return StatusOK
	}

	work, err := e.client.GetWork(e.ctx, t.workID)
	switch {
	case errors.Is(err, archive.ErrRateLimited):
		e.log.Warn("rate limited loading work", "work", t.workID)
		return StatusRetry
	case err != nil:
		e.log.Error("loading work", "work", t.workID, "err", err)
		ev.Err = err.Error()
		return StatusError
	}

	if item == nil {
		item = &WorkItem{ID: t.workID}
	}
	item.Work = work
	e.cache.put(t.workID, item)
	e.log.Info("loaded work", "work", t.workID, "title", work.Title)

	ev.WorkItem = item
	return StatusOK
}

// downloadWork fetches a work's rendered file and writes it under the
// configured downloads directory. A cache entry whose file still exists on
// disk short-circuits; no new request is made. When the work's metadata has
// not been loaded yet, the load happens here first, bracketed by LoadWork's
// own observer pair so the UI sees the same sequence as a standalone load.
func (e *Engine) downloadWork(t task, ev *Event) Status {
	item := e.cache.get(t.workID)
	if item == nil {
		item = &WorkItem{ID: t.workID}
	}

	if item.DownloadPath != "" {
		if _, err := os.Stat(item.DownloadPath); err == nil {
			e.log.Info("work already downloaded, skipping", "work", t.workID)
			ev.WorkItem = item
			return StatusOK
		}
	}

	if !item.Loaded() {
		loadEv := task{action: ActionLoadWork, workID: t.workID}.event()
		e.actionObservers.runBefore(loadEv)

		work, err := e.client.GetWork(e.ctx, t.workID)
		switch {
		case errors.Is(err, archive.ErrRateLimited):
			e.log.Warn("rate limited loading work for download", "work", t.workID)
			return StatusRetry
		case err != nil:
			e.log.Error("loading work for download", "work", t.workID, "err", err)
			ev.Err = err.Error()
			return StatusError
		}

		item.Work = work
		e.cache.put(t.workID, item)

		loadEv.Status = StatusOK
		loadEv.WorkItem = item
		e.actionObservers.runAfter(loadEv)
	}

	settings := e.Config()
	path := e.downloadPath(item.Work, settings.DownloadsDir, settings.Filetype)
	e.log.Info("downloading work", "work", t.workID, "title", item.Work.Title, "path", path)

	data, err := e.client.DownloadWork(e.ctx, t.workID, settings.Filetype)
	switch {
	case errors.Is(err, archive.ErrRateLimited):
		e.log.Warn("rate limited downloading work", "work", t.workID)
		return StatusRetry
	case err != nil:
		e.log.Error("downloading work", "work", t.workID, "err", err)
		ev.Err = err.Error()
		return StatusError
	}

	if !utils.ExtensionMatches(data, settings.Filetype) {
		e.log.Warn("payload does not look like the requested format",
			"work", t.workID, "filetype", settings.Filetype, "sniffed", utils.SniffedExtension(data))
	}

	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		e.log.Error("writing download", "work", t.workID, "err", err)
		ev.Err = err.Error()
		return StatusError
	}

	item.DownloadPath = path
	e.cache.put(t.workID, item)
	e.log.Info("downloaded work", "work", t.workID, "size", utils.HumanSize(int64(len(data))), "path", path)

	ev.WorkItem = item
	return StatusOK
}

// loadSeries expands a series into LoadWork tasks for each of its works.
func (e *Engine) loadSeries(t task, ev *Event) Status {
	series, err := e.client.GetSeries(e.ctx, t.seriesID)
	switch {
	case errors.Is(err, archive.ErrRateLimited):
		e.log.Warn("rate limited loading series", "series", t.seriesID)
		return StatusRetry
	case err != nil:
		e.log.Error("loading series", "series", t.seriesID, "err", err)
		ev.Err = err.Error()
		return StatusError
	}

	e.log.Info("loaded series", "series", t.seriesID, "title", series.Title, "works", len(series.Works))
	for _, stub := range series.Works {
		e.enqueueWork(stub.ID, ActionLoadWork)
	}

	ev.Series = series
	return StatusOK
}

// loadUserWorks expands a user's posted works into LoadWork tasks.
func (e *Engine) loadUserWorks(t task, ev *Event) Status {
	if status := e.probeUser(t.user, ev); status != StatusOK {
		return status
	}
	return e.expandUserStubs(t, ev, e.client.GetUserWorks)
}

// loadUserBookmarks expands a user's bookmarks into LoadWork tasks. The
// session user's own bookmarks skip the existence probe: bookmarks are only
// visible to their owner, and the session proves the account exists.
func (e *Engine) loadUserBookmarks(t task, ev *Event) Status {
	session := e.client.Session()
	if !session.Authed() || session.Username() != t.user {
		if status := e.probeUser(t.user, ev); status != StatusOK {
			return status
		}
	}
	return e.expandUserStubs(t, ev, e.client.GetUserBookmarks)
}

// probeUser maps the user-exists check onto a handler status.
func (e *Engine) probeUser(user string, ev *Event) Status {
	exists, err := e.client.UserExists(e.ctx, user)
	switch {
	case errors.Is(err, archive.ErrRateLimited):
		e.log.Warn("rate limited checking user", "user", user)
		return StatusRetry
	case err != nil:
		e.log.Error("checking user", "user", user, "err", err)
		ev.Err = err.Error()
		return StatusError
	case !exists:
		e.log.Error("user does not exist", "user", user)
		ev.Err = errUserNotFound
		return StatusError
	}
	return StatusOK
}

func (e *Engine) expandUserStubs(t task, ev *Event, fetch func(context.Context, string, bool) ([]archive.WorkStub, error)) Status {
	stubs, err := fetch(e.ctx, t.user, e.Config().UseThreading)
	switch {
	case errors.Is(err, archive.ErrRateLimited):
		e.log.Warn("rate limited loading from user", "user", t.user, "action", t.action)
		return StatusRetry
	case err != nil:
		e.log.Error("loading from user", "user", t.user, "action", t.action, "err", err)
		ev.Err = err.Error()
		return StatusError
	}

	e.log.Info("loaded from user", "user", t.user, "action", t.action, "works", len(stubs))
	for _, stub := range stubs {
		e.enqueueWork(stub.ID, ActionLoadWork)
	}

	ev.Stubs = stubs
	return StatusOK
}

// loadResultsList probes a listing's page count and enqueues a
// LoadResultsPage task per page in the requested range. A zero end means
// every page.
func (e *Engine) loadResultsList(t task, ev *Event) Status {
	normalized, err := e.client.NormalizeListingURL(t.url, 0)
	if err != nil {
		e.log.Error("normalizing listing url", "url", t.url, "err", err)
		ev.Err = err.Error()
		return StatusError
	}

	total, err := e.client.GetListing(e.ctx, normalized)
	switch {
	case errors.Is(err, archive.ErrRateLimited):
		e.log.Warn("rate limited probing listing", "url", t.url)
		return StatusRetry
	case err != nil:
		e.log.Error("probing listing", "url", t.url, "err", err)
		ev.Err = err.Error()
		return StatusError
	}

	start := max(1, t.pageStart)
	end := t.pageEnd
	if end == 0 || end > total {
		end = total
	}
	e.log.Info("loading listing pages", "url", normalized, "start", start, "end", end, "total", total)

	for page := start; page <= end; page++ {
		e.enqueue(task{action: ActionLoadResultsPage, url: normalized, page: page})
	}

	ev.URL = normalized
	ev.TotalPages = total
	return StatusOK
}

// loadResultsPage extracts the work IDs on one listing page and enqueues a
// LoadWork task for each.
func (e *Engine) loadResultsPage(t task, ev *Event) Status {
	ids, err := e.client.GetListingPage(e.ctx, t.url, t.page)
	switch {
	case errors.Is(err, archive.ErrRateLimited):
		e.log.Warn("rate limited loading listing page", "url", t.url, "page", t.page)
		return StatusRetry
	case err != nil:
		e.log.Error("loading listing page", "url", t.url, "page", t.page, "err", err)
		ev.Err = err.Error()
		return StatusError
	}

	e.log.Info("loaded listing page", "url", t.url, "page", t.page, "works", len(ids))
	for _, id := range ids {
		e.enqueueWork(id, ActionLoadWork)
	}

	ev.WorkIDs = ids
	return StatusOK
}

// login authenticates the client. Rate limiting during login is terminal
// for that attempt rather than retried; the session stays guest.
func (e *Engine) login(t task, ev *Event) Status {
	e.client.Logout()

	_, err := e.client.Login(e.ctx, t.user, t.password)
	switch {
	case errors.Is(err, archive.ErrRateLimited):
		e.log.Error("rate limited logging in", "user", t.user)
		ev.Err = "rate limited"
		return StatusError
	case err != nil:
		e.log.Error("logging in", "user", t.user, "err", err)
		ev.Err = err.Error()
		return StatusError
	}

	dataDir := filepath.Join(e.baseDir, dataDirName, t.user)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		e.log.Error("creating user data directory", "user", t.user, "err", err)
		ev.Err = err.Error()
		return StatusError
	}

	e.log.Info("authenticated", "user", t.user)
	return StatusOK
}

// downloadPath is where a loaded work's file lands:
// <downloads_dir>/<session-username>/<id>_<slugified-title>.<ext>.
func (e *Engine) downloadPath(work *archive.Work, downloadsDir, ft string) string {
	name := fmt.Sprintf("%d_%s.%s", work.ID, utils.Slugify(work.Title), strings.ToLower(ft))
	return filepath.Join(downloadsDir, e.client.Session().Username(), name)
}
