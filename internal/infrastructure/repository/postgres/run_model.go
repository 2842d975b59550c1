package postgres

import (
	"time"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/ingestrun"
)

type runModel struct {
	ID           string     `db:"id"`
	Season       int        `db:"season"`
	StartDate    string     `db:"start_date"`
	EndDate      string     `db:"end_date"`
	Reset        bool       `db:"reset"`
	Status       string     `db:"status"`
	PagesWritten int        `db:"pages_written"`
	RowsWritten  int        `db:"rows_written"`
	NextPage     *int       `db:"next_page"`
	ErrorMessage *string    `db:"error_message"`
	StartedAt    time.Time  `db:"started_at"`
	FinishedAt   *time.Time `db:"finished_at"`
}

func (m runModel) toDomain() ingestrun.Run {
	return ingestrun.Run{
		ID:           m.ID,
		Season:       m.Season,
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
		Reset:        m.Reset,
		Status:       ingestrun.Status(m.Status),
		PagesWritten: m.PagesWritten,
		RowsWritten:  m.RowsWritten,
		NextPage:     m.NextPage,
		ErrorMessage: m.ErrorMessage,
		StartedAt:    m.StartedAt,
		FinishedAt:   m.FinishedAt,
	}
}
