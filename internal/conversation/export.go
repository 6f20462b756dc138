// ABOUTME: Compliance export with per-message integrity verification
// ABOUTME: Recomputes fingerprints to report tampering; mismatches never block the export

package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salmanrrana/brain-dump-sub000/internal/store"
)

// RedactedContent replaces message bodies when an export excludes content.
const RedactedContent = "[REDACTED]"

// ExportParams control the scope and shape of a compliance export.
// StartDate and EndDate are required, inclusive bounds on session start
// time. Nil IncludeContent/VerifyIntegrity default to true.
type ExportParams struct {
	StartDate       time.Time
	EndDate         time.Time
	SessionID       string // optional narrowing
	ProjectID       string // optional narrowing
	IncludeContent  *bool
	VerifyIntegrity *bool
}

// ComplianceExport is the single structured document produced by Export.
type ComplianceExport struct {
	ExportID        string            `json:"export_id"`
	GeneratedAt     time.Time         `json:"generated_at"`
	PeriodStart     time.Time         `json:"period_start"`
	PeriodEnd       time.Time         `json:"period_end"`
	SessionCount    int               `json:"session_count"`
	MessageCount    int               `json:"message_count"`
	IncludeContent  bool              `json:"include_content"`
	VerifyIntegrity bool              `json:"verify_integrity"`
	Integrity       *IntegrityReport  `json:"integrity,omitempty"`
	Sessions        []ExportedSession `json:"sessions"`
}

// IntegrityReport aggregates per-message verification verdicts.
type IntegrityReport struct {
	TotalMessages     int      `json:"total_messages"`
	ValidMessages     int      `json:"valid_messages"`
	InvalidMessages   int      `json:"invalid_messages"`
	InvalidMessageIDs []string `json:"invalid_message_ids"`
	Passed            bool     `json:"passed"`
}

// ExportedSession is one session with its (possibly redacted) messages.
type ExportedSession struct {
	SessionID          string            `json:"session_id"`
	ProjectName        string            `json:"project_name,omitempty"`
	TicketTitle        string            `json:"ticket_title,omitempty"`
	UserID             string            `json:"user_id,omitempty"`
	Environment        string            `json:"environment"`
	DataClassification string            `json:"data_classification"`
	LegalHold          bool              `json:"legal_hold"`
	StartedAt          time.Time         `json:"started_at"`
	EndedAt            *time.Time        `json:"ended_at,omitempty"`
	Messages           []ExportedMessage `json:"messages"`
}

// ExportedMessage is one message in an export. IntegrityValid is nil when
// verification was not requested.
type ExportedMessage struct {
	MessageID                string          `json:"message_id"`
	Seq                      int             `json:"seq"`
	Role                     string          `json:"role"`
	Content                  string          `json:"content"`
	ContentHash              string          `json:"content_hash"`
	ToolCalls                json.RawMessage `json:"tool_calls,omitempty"`
	TokenCount               *int            `json:"token_count,omitempty"`
	ModelID                  string          `json:"model_id,omitempty"`
	ContainsPotentialSecrets bool            `json:"contains_potential_secrets"`
	CreatedAt                time.Time       `json:"created_at"`
	IntegrityValid           *bool           `json:"integrity_valid,omitempty"`
}

// Export produces a compliance export for the given date range. When
// verification is on, each message's fingerprint is recomputed from the
// stored content and compared to the stored hash; tampering is reported in
// the integrity section, never used to abort the export.
func (s *Service) Export(ctx context.Context, params ExportParams) (*ComplianceExport, error) {
	if params.StartDate.IsZero() || params.EndDate.IsZero() {
		return nil, &ValidationError{
			Code:    CodeInvalidDateRange,
			Message: "export requires both a start and end date",
		}
	}
	if params.EndDate.Before(params.StartDate) {
		return nil, &ValidationError{
			Code:    CodeInvalidDateRange,
			Message: "export end date precedes start date",
		}
	}

	includeContent := params.IncludeContent == nil || *params.IncludeContent
	verify := params.VerifyIntegrity == nil || *params.VerifyIntegrity

	rows, err := s.store.SessionsForExport(ctx,
		params.StartDate, params.EndDate,
		optional(params.SessionID), optional(params.ProjectID),
	)
	if err != nil {
		return nil, fmt.Errorf("selecting sessions for export: %w", err)
	}

	export := &ComplianceExport{
		ExportID:        uuid.New().String(),
		GeneratedAt:     time.Now().UTC(),
		PeriodStart:     params.StartDate.UTC(),
		PeriodEnd:       params.EndDate.UTC(),
		IncludeContent:  includeContent,
		VerifyIntegrity: verify,
		Sessions:        []ExportedSession{},
	}

	var report *IntegrityReport
	if verify {
		report = &IntegrityReport{InvalidMessageIDs: []string{}}
	}

	for _, row := range rows {
		msgs, err := s.store.GetSessionMessages(ctx, row.ID)
		if err != nil {
			return nil, fmt.Errorf("loading messages for session %s: %w", row.ID, err)
		}

		exported := ExportedSession{
			SessionID:          row.ID,
			ProjectName:        deref(row.ProjectName),
			TicketTitle:        deref(row.TicketTitle),
			UserID:             deref(row.UserID),
			Environment:        row.Environment,
			DataClassification: row.DataClassification,
			LegalHold:          row.LegalHold,
			StartedAt:          row.StartedAt,
			EndedAt:            row.EndedAt,
			Messages:           make([]ExportedMessage, 0, len(msgs)),
		}

		for _, msg := range msgs {
			em := ExportedMessage{
				MessageID:                msg.ID,
				Seq:                      msg.Seq,
				Role:                     msg.Role,
				Content:                  msg.Content,
				ContentHash:              msg.ContentHash,
				TokenCount:               msg.TokenCount,
				ModelID:                  deref(msg.ModelID),
				ContainsPotentialSecrets: msg.ContainsPotentialSecrets,
				CreatedAt:                msg.CreatedAt,
			}
			if msg.ToolCalls != nil {
				em.ToolCalls = json.RawMessage(*msg.ToolCalls)
			}

			// Verification runs against the stored content before any redaction.
			if verify {
				valid := s.signer.Verify(msg.SessionID, msg.Content, msg.ContentHash)
				em.IntegrityValid = &valid
				report.TotalMessages++
				if valid {
					report.ValidMessages++
				} else {
					report.InvalidMessages++
					report.InvalidMessageIDs = append(report.InvalidMessageIDs, msg.ID)
					s.logger.Warn("message failed integrity verification",
						"session_id", msg.SessionID,
						"message_id", msg.ID,
					)
				}
			}

			if !includeContent {
				em.Content = RedactedContent
			}

			exported.Messages = append(exported.Messages, em)
			export.MessageCount++
		}

		export.Sessions = append(export.Sessions, exported)
	}

	export.SessionCount = len(export.Sessions)
	if verify {
		report.Passed = report.InvalidMessages == 0
		export.Integrity = report
	}

	s.logger.Info("generated compliance export",
		"export_id", export.ExportID,
		"sessions", export.SessionCount,
		"messages", export.MessageCount,
		"verified", verify,
	)

	s.recordAccess("conversation_sessions",
		fmt.Sprintf("period:%s..%s",
			params.StartDate.UTC().Format("2006-01-02"),
			params.EndDate.UTC().Format("2006-01-02")),
		store.AccessActionExport,
		fmt.Sprintf("%d sessions, %d messages", export.SessionCount, export.MessageCount),
	)

	return export, nil
}
