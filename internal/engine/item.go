package engine

import "github.com/froyo-dl/froyo/internal/archive"

// WorkItem pairs a work's loaded metadata with the path it was downloaded
// to, if any. Items live in the work cache and are mutated in place by the
// load and download handlers.
type WorkItem struct {
	ID           int64
	Work         *archive.Work
	DownloadPath string
}

// Loaded reports whether the work's metadata has been fetched.
func (w *WorkItem) Loaded() bool { return w.Work != nil }
