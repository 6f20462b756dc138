// ABOUTME: Retention-based archival with a mandatory dry-run/confirm protocol
// ABOUTME: Eligibility is re-derived on every call; legal holds are excluded at selection

package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/salmanrrana/brain-dump-sub000/internal/store"
)

// DefaultRetentionDays applies when neither the caller nor the
// retention_days setting supplies a window.
const DefaultRetentionDays = 90

// ArchiveParams control one archival invocation.
// RetentionDays of 0 falls back to the configured setting, then 90.
// Confirm false previews; Confirm true deletes.
type ArchiveParams struct {
	RetentionDays int
	Confirm       bool
}

// ArchivePreview describes one session that would be (or was) deleted.
type ArchivePreview struct {
	SessionID          string
	ProjectName        string
	Environment        string
	DataClassification string
	MessageCount       int
	StartedAt          time.Time
	EndedAt            *time.Time
}

// ArchiveResult reports what an archival call did or would do.
type ArchiveResult struct {
	DryRun            bool
	RetentionDays     int
	Cutoff            time.Time
	SessionsAffected  int
	MessagesAffected  int
	LegalHoldExcluded int
	Preview           []ArchivePreview
}

// Archive identifies sessions older than the retention cutoff and either
// previews (default) or deletes them. Selection always excludes legal-hold
// sessions and is evaluated fresh on every call, so a hold added between a
// preview and its confirm is honored by the confirm.
func (s *Service) Archive(ctx context.Context, params ArchiveParams) (*ArchiveResult, error) {
	retentionDays, err := s.resolveRetentionDays(ctx, params.RetentionDays)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	candidates, err := s.store.ArchiveCandidates(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("selecting archive candidates: %w", err)
	}
	heldCount, err := s.store.CountHeldSessionsBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("counting held sessions: %w", err)
	}

	result := &ArchiveResult{
		DryRun:            !params.Confirm,
		RetentionDays:     retentionDays,
		Cutoff:            cutoff,
		LegalHoldExcluded: heldCount,
		Preview:           []ArchivePreview{},
	}

	cutoffTarget := "cutoff:" + cutoff.Format(time.RFC3339)

	// Nothing eligible: report and skip the transaction path entirely.
	if len(candidates) == 0 {
		action := store.AccessActionDryRun
		if params.Confirm {
			action = store.AccessActionDelete
		}
		s.recordAccess("conversation_sessions", cutoffTarget, action,
			fmt.Sprintf("nothing to archive (%d excluded by legal hold)", heldCount))
		return result, nil
	}

	messageTotal := 0
	for _, c := range candidates {
		messageTotal += c.MessageCount
		result.Preview = append(result.Preview, ArchivePreview{
			SessionID:          c.ID,
			ProjectName:        deref(c.ProjectName),
			Environment:        c.Environment,
			DataClassification: c.DataClassification,
			MessageCount:       c.MessageCount,
			StartedAt:          c.StartedAt,
			EndedAt:            c.EndedAt,
		})
	}

	if !params.Confirm {
		result.SessionsAffected = len(candidates)
		result.MessagesAffected = messageTotal

		s.logger.Info("archival dry run",
			"cutoff", cutoff,
			"sessions", result.SessionsAffected,
			"messages", result.MessagesAffected,
			"held_excluded", heldCount,
		)
		s.recordAccess("conversation_sessions", cutoffTarget, store.AccessActionDryRun,
			fmt.Sprintf("would delete %d sessions, %d messages (%d excluded by legal hold)",
				result.SessionsAffected, result.MessagesAffected, heldCount))
		return result, nil
	}

	sessionsDeleted, messagesDeleted, err := s.store.DeleteSessionsBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("deleting archived sessions: %w", err)
	}
	result.SessionsAffected = int(sessionsDeleted)
	result.MessagesAffected = int(messagesDeleted)

	s.logger.Info("archival delete complete",
		"cutoff", cutoff,
		"sessions", sessionsDeleted,
		"messages", messagesDeleted,
		"held_excluded", heldCount,
	)
	s.recordAccess("conversation_sessions", cutoffTarget, store.AccessActionDelete,
		fmt.Sprintf("deleted %d sessions, %d messages (%d excluded by legal hold)",
			sessionsDeleted, messagesDeleted, heldCount))

	return result, nil
}

// resolveRetentionDays picks the retention window: explicit parameter,
// then the retention_days setting, then the default.
func (s *Service) resolveRetentionDays(ctx context.Context, requested int) (int, error) {
	if requested > 0 {
		return requested, nil
	}

	value, err := s.store.GetSetting(ctx, store.SettingRetentionDays)
	if errors.Is(err, store.ErrSettingNotFound) {
		return DefaultRetentionDays, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading retention setting: %w", err)
	}

	days, err := strconv.Atoi(value)
	if err != nil || days <= 0 {
		s.logger.Warn("ignoring invalid retention_days setting", "value", value)
		return DefaultRetentionDays, nil
	}
	return days, nil
}
