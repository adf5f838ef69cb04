package engine

// Action identifies the kind of job a queued task performs.
type Action int

const (
	// actionSentinel is the poison pill workers recycle during shutdown.
	actionSentinel Action = iota

	ActionLoadWork
	ActionDownloadWork
	ActionLoadSeries
	ActionLoadUserWorks
	ActionLoadUserBookmarks
	ActionLoadResultsList
	ActionLoadResultsPage
	ActionLogin
)

func (a Action) String() string {
	switch a {
	case ActionLoadWork:
		return "load_work"
	case ActionDownloadWork:
		return "download_work"
	case ActionLoadSeries:
		return "load_series"
	case ActionLoadUserWorks:
		return "load_user_works"
	case ActionLoadUserBookmarks:
		return "load_user_bookmarks"
	case ActionLoadResultsList:
		return "load_results_list"
	case ActionLoadResultsPage:
		return "load_results_page"
	case ActionLogin:
		return "login"
	default:
		return "sentinel"
	}
}

// workScoped reports whether the action is keyed by a work ID and therefore
// gated on active-set membership.
func (a Action) workScoped() bool {
	return a == ActionLoadWork || a == ActionDownloadWork
}

// Status is the outcome a handler reports for one task.
type Status int

const (
	StatusOK Status = iota
	StatusError
	StatusRetry
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "retry"
	}
}

// task is a queued unit of work. Only the identifier fields matching the
// action are set; the zero values of the rest keep the struct comparable so
// it can double as the retry-table key.
type task struct {
	action Action

	workID   int64
	seriesID int64
	user     string
	password string
	url      string

	page      int
	pageStart int
	pageEnd   int
}

// event seeds an observer Event with the task's identifier fields.
func (t task) event() Event {
	return Event{
		Action:   t.action,
		WorkID:   t.workID,
		SeriesID: t.seriesID,
		User:     t.user,
		URL:      t.url,
		Page:     t.page,
	}
}
