// ABOUTME: Data types and sentinel errors for brain-dump persistence
// ABOUTME: Defines Session, Message, AccessRecord structs and shared filter types

package store

import (
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a requested session does not exist
var ErrSessionNotFound = errors.New("session not found")

// ErrProjectNotFound is returned when a referenced project does not exist
var ErrProjectNotFound = errors.New("project not found")

// ErrTicketNotFound is returned when a referenced ticket does not exist
var ErrTicketNotFound = errors.New("ticket not found")

// ErrSettingNotFound is returned when a settings key has no value
var ErrSettingNotFound = errors.New("setting not found")

// ErrDuplicateID is returned when inserting a row whose primary key already exists
var ErrDuplicateID = errors.New("duplicate id")

// Message role constants
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Data classification levels, least to most sensitive
const (
	ClassificationPublic       = "public"
	ClassificationInternal     = "internal"
	ClassificationConfidential = "confidential"
	ClassificationRestricted   = "restricted"
)

// Session represents one recorded conversation between a human/tool and an assistant.
// EndedAt is nil while the session is still open.
type Session struct {
	ID                 string
	ProjectID          *string
	TicketID           *string
	UserID             *string
	Environment        string
	Metadata           *string // JSON blob, opaque to the store
	DataClassification string
	LegalHold          bool
	StartedAt          time.Time
	EndedAt            *time.Time
	CreatedAt          time.Time
}

// Message represents a single logged message within a session.
// Messages are append-only; rows are never updated after insert.
type Message struct {
	ID                       string
	SessionID                string
	Role                     string
	Content                  string
	ContentHash              string
	ToolCalls                *string // JSON blob
	TokenCount               *int
	ModelID                  *string
	Seq                      int
	ContainsPotentialSecrets bool
	CreatedAt                time.Time
}

// SessionSummary is a session row joined with its message count and
// linked project/ticket display names.
type SessionSummary struct {
	ID                 string
	ProjectID          *string
	ProjectName        *string
	TicketID           *string
	TicketTitle        *string
	UserID             *string
	Environment        string
	DataClassification string
	LegalHold          bool
	StartedAt          time.Time
	EndedAt            *time.Time
	MessageCount       int
}

// SessionFilter specifies filtering options for listing session summaries.
type SessionFilter struct {
	ProjectID     *string
	TicketID      *string
	Environment   *string
	StartedAfter  *time.Time // inclusive
	StartedBefore *time.Time // inclusive
	IncludeActive bool       // include sessions with ended_at IS NULL
	Limit         int        // max results (default 50, max 500)
}

// AccessRecord is one entry in the append-only access log.
type AccessRecord struct {
	ID         string
	AccessorID string
	TargetType string
	TargetID   string
	Action     string
	Result     *string
	CreatedAt  time.Time
}

// AccessFilter specifies filtering options for listing access records.
type AccessFilter struct {
	TargetType *string
	TargetID   *string
	Action     *string
	Since      *time.Time
	Until      *time.Time
	Limit      int // max results (default 100, max 1000)
}

// Project is a minimal project record, kept only so sessions can be
// linked and display names rendered on export.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Ticket is a minimal ticket record, optionally linked to a project.
type Ticket struct {
	ID        string
	ProjectID *string
	Title     string
	CreatedAt time.Time
}

// Setting keys used by the engine
const (
	SettingRetentionDays     = "retention_days"
	SettingFingerprintSecret = "fingerprint_secret"
)
