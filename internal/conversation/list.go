// ABOUTME: Filtered, paginated listing of session summaries
// ABOUTME: Read-only; message counts are derived, never stored

package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/salmanrrana/brain-dump-sub000/internal/store"
)

// ListFilter narrows the sessions returned by List.
// Zero values mean "no filter"; IncludeActive nil means true.
type ListFilter struct {
	ProjectID     string
	TicketID      string
	Environment   string
	StartedAfter  time.Time // inclusive
	StartedBefore time.Time // inclusive
	IncludeActive *bool
	Limit         int // default 50, capped at 500
}

// SessionSummary is one row of a listing: session attributes, linked
// display names, the derived message count, and whether it is still open.
type SessionSummary struct {
	SessionID          string
	ProjectID          string
	ProjectName        string
	TicketID           string
	TicketTitle        string
	UserID             string
	Environment        string
	DataClassification string
	LegalHold          bool
	StartedAt          time.Time
	EndedAt            *time.Time
	MessageCount       int
	IsActive           bool
}

// List returns session summaries matching the filter, newest first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]SessionSummary, error) {
	includeActive := true
	if f.IncludeActive != nil {
		includeActive = *f.IncludeActive
	}

	sf := store.SessionFilter{
		ProjectID:     optional(f.ProjectID),
		TicketID:      optional(f.TicketID),
		Environment:   optional(f.Environment),
		IncludeActive: includeActive,
		Limit:         f.Limit,
	}
	if !f.StartedAfter.IsZero() {
		after := f.StartedAfter
		sf.StartedAfter = &after
	}
	if !f.StartedBefore.IsZero() {
		before := f.StartedBefore
		sf.StartedBefore = &before
	}

	rows, err := s.store.ListSessionSummaries(ctx, sf)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	summaries := make([]SessionSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, summaryFromRow(row))
	}
	return summaries, nil
}

// summaryFromRow converts a store summary into the service's shape.
func summaryFromRow(row store.SessionSummary) SessionSummary {
	return SessionSummary{
		SessionID:          row.ID,
		ProjectID:          deref(row.ProjectID),
		ProjectName:        deref(row.ProjectName),
		TicketID:           deref(row.TicketID),
		TicketTitle:        deref(row.TicketTitle),
		UserID:             deref(row.UserID),
		Environment:        row.Environment,
		DataClassification: row.DataClassification,
		LegalHold:          row.LegalHold,
		StartedAt:          row.StartedAt,
		EndedAt:            row.EndedAt,
		MessageCount:       row.MessageCount,
		IsActive:           row.EndedAt == nil,
	}
}

// deref returns the value of a *string or "" when nil
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
