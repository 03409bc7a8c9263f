package models

import (
	"time"

	"github.com/google/uuid"
)

// CategorySummary counts what one sweep did for a single category.
type CategorySummary struct {
	Category     Category `json:"category"`
	Evaluated    int      `json:"evaluated"`
	OutOfStock   int      `json:"out_of_stock"`
	LowStock     int      `json:"low_stock"`
	NearExpiry   int      `json:"near_expiry"`
	Notified     int      `json:"notified"`
	Suppressed   int      `json:"suppressed"`
	Skipped      int      `json:"skipped"`
	Archived     int      `json:"archived"`
	ArchiveFails int      `json:"archive_failures"`
	Errors       []string `json:"errors,omitempty"`
}

// SweepSummary is the result of one scheduled run across categories.
type SweepSummary struct {
	RunID      uuid.UUID          `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Categories []*CategorySummary `json:"categories"`
}

// Totals folds the per-category counts into one summary row.
func (s *SweepSummary) Totals() CategorySummary {
	var total CategorySummary
	for _, c := range s.Categories {
		total.Evaluated += c.Evaluated
		total.OutOfStock += c.OutOfStock
		total.LowStock += c.LowStock
		total.NearExpiry += c.NearExpiry
		total.Notified += c.Notified
		total.Suppressed += c.Suppressed
		total.Skipped += c.Skipped
		total.Archived += c.Archived
		total.ArchiveFails += c.ArchiveFails
		total.Errors = append(total.Errors, c.Errors...)
	}
	return total
}

// Duration is the wall time of the run.
func (s *SweepSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
