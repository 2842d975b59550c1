package ingestrun

import "time"

type Status string

const (
	StatusRunning     Status = "running"
	StatusDone        Status = "done"
	StatusDoneAlready Status = "done_already"
	StatusPartial     Status = "partial"
	StatusFailed      Status = "failed"
)

// Run records the outcome of one ingestion invocation.
type Run struct {
	ID           string     `db:"id"`
	Season       int        `db:"season"`
	StartDate    string     `db:"start_date"`
	EndDate      string     `db:"end_date"`
	Reset        bool       `db:"reset"`
	Status       Status     `db:"status"`
	PagesWritten int        `db:"pages_written"`
	RowsWritten  int        `db:"rows_written"`
	NextPage     *int       `db:"next_page"`
	ErrorMessage *string    `db:"error_message"`
	StartedAt    time.Time  `db:"started_at"`
	FinishedAt   *time.Time `db:"finished_at"`
}

func (r Run) Terminal() bool {
	return r.Status != StatusRunning
}
