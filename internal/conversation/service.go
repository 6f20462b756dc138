// ABOUTME: Service is the conversation audit log engine
// ABOUTME: Wires storage, fingerprinting, and injected collaborators behind one type

package conversation

import (
	"context"
	"log/slog"
	"time"

	"github.com/salmanrrana/brain-dump-sub000/internal/fingerprint"
	"github.com/salmanrrana/brain-dump-sub000/internal/store"
)

// Store defines what the service needs from storage
type Store interface {
	CreateSession(ctx context.Context, sess *store.Session) error
	GetSession(ctx context.Context, id string) (*store.Session, error)
	EndSession(ctx context.Context, id string, endedAt time.Time) (bool, error)
	SetSessionLegalHold(ctx context.Context, id string, held bool) error

	AppendMessage(ctx context.Context, msg *store.Message) (int, error)
	GetSessionMessages(ctx context.Context, sessionID string) ([]*store.Message, error)
	CountSessionMessages(ctx context.Context, sessionID string) (int, error)

	ListSessionSummaries(ctx context.Context, f store.SessionFilter) ([]store.SessionSummary, error)
	SessionsForExport(ctx context.Context, start, end time.Time, sessionID, projectID *string) ([]store.SessionSummary, error)

	ArchiveCandidates(ctx context.Context, cutoff time.Time) ([]store.SessionSummary, error)
	CountHeldSessionsBefore(ctx context.Context, cutoff time.Time) (int, error)
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (sessionsDeleted, messagesDeleted int64, err error)

	GetProject(ctx context.Context, id string) (*store.Project, error)
	GetTicket(ctx context.Context, id string) (*store.Ticket, error)
	GetSetting(ctx context.Context, key string) (string, error)

	RecordAccess(ctx context.Context, rec *store.AccessRecord) error
}

// EnvironmentDetector resolves the label of the client a session runs in.
// Injected; the engine never sniffs the environment itself.
type EnvironmentDetector interface {
	DetectEnvironment() string
}

// DetectorFunc adapts a plain function to EnvironmentDetector.
type DetectorFunc func() string

func (f DetectorFunc) DetectEnvironment() string { return f() }

// SecretScanner flags message content that may contain credentials.
// Advisory only: the result is stored as metadata and never blocks logging.
type SecretScanner interface {
	ContainsSecrets(content string) bool
}

// ScannerFunc adapts a plain function to SecretScanner.
type ScannerFunc func(content string) bool

func (f ScannerFunc) ContainsSecrets(content string) bool { return f(content) }

// ValidationError reports a violated domain rule. Code is stable for
// programmatic handling; Message names the violated precondition.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation error codes
const (
	CodeSessionEnded          = "session_ended"
	CodeInvalidRole           = "invalid_role"
	CodeInvalidClassification = "invalid_classification"
	CodeInvalidDateRange      = "invalid_date_range"
)

// accessorSystem identifies the engine itself in access records. Caller
// identity belongs to the dispatch layer above this core.
const accessorSystem = "system"

// Service implements the conversation audit log engine: session lifecycle,
// append-only message logging, listing, compliance export, and
// retention-based archival.
type Service struct {
	store    Store
	signer   *fingerprint.Signer
	detector EnvironmentDetector
	scanner  SecretScanner
	logger   *slog.Logger
}

// NewService creates a conversation service.
// If logger is nil, slog.Default() is used.
func NewService(st Store, signer *fingerprint.Signer, detector EnvironmentDetector, scanner SecretScanner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		signer:   signer,
		detector: detector,
		scanner:  scanner,
		logger:   logger.With("component", "conversation"),
	}
}

// recordAccess writes a best-effort entry to the access log. Failures are
// logged and swallowed: an audit write must never fail the operation it
// describes. Uses a short background context so a cancelled caller context
// can't suppress the record.
func (s *Service) recordAccess(targetType, targetID, action, result string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec := &store.AccessRecord{
		AccessorID: accessorSystem,
		TargetType: targetType,
		TargetID:   targetID,
		Action:     action,
		Result:     &result,
	}
	if err := s.store.RecordAccess(ctx, rec); err != nil {
		s.logger.Warn("recording access entry failed",
			"action", action,
			"target", targetType+"/"+targetID,
			"error", err,
		)
	}
}
