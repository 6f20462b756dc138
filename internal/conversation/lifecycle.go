// ABOUTME: Session lifecycle: start, idempotent end, and legal hold
// ABOUTME: Start validates project/ticket linkage and resolves the environment label

package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salmanrrana/brain-dump-sub000/internal/store"
)

// StartParams are the inputs for starting a conversation session.
// Empty strings mean "not provided".
type StartParams struct {
	ProjectID          string
	TicketID           string
	UserID             string
	Metadata           map[string]any
	DataClassification string // defaults to "internal"
}

// StartResult is the normalized summary returned for a new session.
type StartResult struct {
	SessionID          string
	Environment        string
	DataClassification string
	ProjectID          string
	TicketID           string
	UserID             string
	StartedAt          time.Time
}

// EndResult reports the outcome of ending a session.
type EndResult struct {
	SessionID    string
	EndedAt      time.Time
	AlreadyEnded bool
	MessageCount int
}

var validClassifications = map[string]bool{
	store.ClassificationPublic:       true,
	store.ClassificationInternal:     true,
	store.ClassificationConfidential: true,
	store.ClassificationRestricted:   true,
}

// Start creates a new conversation session. Project and ticket references
// are validated when given; the environment label comes from the injected
// detector.
func (s *Service) Start(ctx context.Context, params StartParams) (*StartResult, error) {
	classification := params.DataClassification
	if classification == "" {
		classification = store.ClassificationInternal
	}
	if !validClassifications[classification] {
		return nil, &ValidationError{
			Code:    CodeInvalidClassification,
			Message: fmt.Sprintf("unknown data classification %q", classification),
		}
	}

	if params.ProjectID != "" {
		if _, err := s.store.GetProject(ctx, params.ProjectID); err != nil {
			return nil, fmt.Errorf("validating project %s: %w", params.ProjectID, err)
		}
	}
	if params.TicketID != "" {
		if _, err := s.store.GetTicket(ctx, params.TicketID); err != nil {
			return nil, fmt.Errorf("validating ticket %s: %w", params.TicketID, err)
		}
	}

	var metadata *string
	if params.Metadata != nil {
		data, err := json.Marshal(params.Metadata)
		if err != nil {
			return nil, fmt.Errorf("serializing metadata: %w", err)
		}
		str := string(data)
		metadata = &str
	}

	environment := s.detector.DetectEnvironment()
	now := time.Now().UTC()

	sess := &store.Session{
		ID:                 uuid.New().String(),
		ProjectID:          optional(params.ProjectID),
		TicketID:           optional(params.TicketID),
		UserID:             optional(params.UserID),
		Environment:        environment,
		Metadata:           metadata,
		DataClassification: classification,
		StartedAt:          now,
		CreatedAt:          now,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.logger.Info("started conversation session",
		"session_id", sess.ID,
		"environment", environment,
		"classification", classification,
	)

	return &StartResult{
		SessionID:          sess.ID,
		Environment:        environment,
		DataClassification: classification,
		ProjectID:          params.ProjectID,
		TicketID:           params.TicketID,
		UserID:             params.UserID,
		StartedAt:          now,
	}, nil
}

// End closes a session. Ending an already-ended session is not an error:
// the existing end timestamp is returned with AlreadyEnded set.
func (s *Service) End(ctx context.Context, sessionID string) (*EndResult, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("looking up session %s: %w", sessionID, err)
	}

	count, err := s.store.CountSessionMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}

	if sess.EndedAt != nil {
		return &EndResult{
			SessionID:    sessionID,
			EndedAt:      *sess.EndedAt,
			AlreadyEnded: true,
			MessageCount: count,
		}, nil
	}

	endedAt := time.Now().UTC()
	if endedAt.Before(sess.StartedAt) {
		// Clock skew between writers; ended_at stays monotonic with started_at.
		endedAt = sess.StartedAt
	}

	updated, err := s.store.EndSession(ctx, sessionID, endedAt)
	if err != nil {
		return nil, fmt.Errorf("ending session %s: %w", sessionID, err)
	}
	if !updated {
		// Lost the race to another ender: re-read and report their timestamp.
		sess, err = s.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("re-reading session %s: %w", sessionID, err)
		}
		return &EndResult{
			SessionID:    sessionID,
			EndedAt:      *sess.EndedAt,
			AlreadyEnded: true,
			MessageCount: count,
		}, nil
	}

	s.logger.Info("ended conversation session", "session_id", sessionID, "messages", count)

	return &EndResult{
		SessionID:    sessionID,
		EndedAt:      endedAt,
		MessageCount: count,
	}, nil
}

// SetLegalHold flips the legal-hold flag on a session. Held sessions are
// never deleted by archival regardless of age.
func (s *Service) SetLegalHold(ctx context.Context, sessionID string, held bool) error {
	if err := s.store.SetSessionLegalHold(ctx, sessionID, held); err != nil {
		return fmt.Errorf("setting legal hold on %s: %w", sessionID, err)
	}

	s.logger.Info("set legal hold", "session_id", sessionID, "held", held)
	s.recordAccess("conversation_session", sessionID, store.AccessActionSetHold,
		fmt.Sprintf("held=%t", held))
	return nil
}

// optional converts an empty string to nil for nullable columns
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
