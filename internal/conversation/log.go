// ABOUTME: Message logging with fingerprinting and advisory secret scanning
// ABOUTME: Appends to open sessions only; sequence numbers come from the store transaction

package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salmanrrana/brain-dump-sub000/internal/store"
)

// ToolCall records one structured tool invocation attached to a message.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// LogParams are the inputs for logging one message.
// TokenCount of 0 and empty ModelID mean "not provided".
type LogParams struct {
	SessionID  string
	Role       string
	Content    string
	ToolCalls  []ToolCall
	TokenCount int
	ModelID    string
}

// LogResult reports the stored message's identity and derived fields.
type LogResult struct {
	MessageID                string
	Seq                      int
	ContentHash              string
	ContainsPotentialSecrets bool
}

var validRoles = map[string]bool{
	store.RoleUser:      true,
	store.RoleAssistant: true,
	store.RoleSystem:    true,
	store.RoleTool:      true,
}

// LogMessage appends a message to an open session. The content fingerprint
// and secret-scan flag are computed here; the per-session sequence number is
// assigned by the store inside the insert transaction.
//
// Not idempotent: retrying after a partial failure would claim a second
// sequence slot. Callers must not blindly retry.
func (s *Service) LogMessage(ctx context.Context, params LogParams) (*LogResult, error) {
	sess, err := s.store.GetSession(ctx, params.SessionID)
	if err != nil {
		return nil, fmt.Errorf("looking up session %s: %w", params.SessionID, err)
	}

	if sess.EndedAt != nil {
		return nil, &ValidationError{
			Code: CodeSessionEnded,
			Message: fmt.Sprintf("session %s has already ended; start a new session to continue",
				params.SessionID),
		}
	}

	if !validRoles[params.Role] {
		return nil, &ValidationError{
			Code:    CodeInvalidRole,
			Message: fmt.Sprintf("unknown message role %q", params.Role),
		}
	}

	contentHash := s.signer.Fingerprint(params.SessionID, params.Content)
	hasSecrets := s.scanner.ContainsSecrets(params.Content)

	var toolCalls *string
	if len(params.ToolCalls) > 0 {
		data, err := json.Marshal(params.ToolCalls)
		if err != nil {
			return nil, fmt.Errorf("serializing tool calls: %w", err)
		}
		str := string(data)
		toolCalls = &str
	}

	var tokenCount *int
	if params.TokenCount > 0 {
		tokenCount = &params.TokenCount
	}

	msg := &store.Message{
		ID:                       uuid.New().String(),
		SessionID:                params.SessionID,
		Role:                     params.Role,
		Content:                  params.Content,
		ContentHash:              contentHash,
		ToolCalls:                toolCalls,
		TokenCount:               tokenCount,
		ModelID:                  optional(params.ModelID),
		ContainsPotentialSecrets: hasSecrets,
		CreatedAt:                time.Now().UTC(),
	}

	seq, err := s.store.AppendMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}

	s.logger.Debug("logged message",
		"session_id", params.SessionID,
		"message_id", msg.ID,
		"role", params.Role,
		"seq", seq,
	)

	return &LogResult{
		MessageID:                msg.ID,
		Seq:                      seq,
		ContentHash:              contentHash,
		ContainsPotentialSecrets: hasSecrets,
	}, nil
}
