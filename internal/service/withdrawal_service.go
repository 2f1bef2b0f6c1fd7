package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/webtics/research-consent-api/internal/config"
	"github.com/webtics/research-consent-api/internal/crypto"
	"github.com/webtics/research-consent-api/internal/dao"
	"github.com/webtics/research-consent-api/internal/database"
	"github.com/webtics/research-consent-api/internal/models"
	"github.com/webtics/research-consent-api/pkg/utils"

	"github.com/sirupsen/logrus"
)

// errAlreadyWithdrawn signals that a concurrent withdrawal won the status
// flip. It never reaches the caller; the loser gets the generic failure
// outcome.
var errAlreadyWithdrawn = errors.New("consent already withdrawn")

// WithdrawalService handles withdrawal attempts and participant data exports.
// Every attempt, successful or not, leaves an audit entry, and every failure
// produces the same caller-facing outcome regardless of cause.
type WithdrawalService struct {
	consentDAO   *dao.ConsentDAO
	auditDAO     *dao.WithdrawalAuditDAO
	telemetryDAO *dao.TelemetryDAO
	keyring      *crypto.Keyring
	db           *database.DB
	logger       *logrus.Logger
}

// NewWithdrawalService creates a new withdrawal service instance
func NewWithdrawalService(
	consentDAO *dao.ConsentDAO,
	auditDAO *dao.WithdrawalAuditDAO,
	telemetryDAO *dao.TelemetryDAO,
	keyring *crypto.Keyring,
	db *database.DB,
	logger *logrus.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		consentDAO:   consentDAO,
		auditDAO:     auditDAO,
		telemetryDAO: telemetryDAO,
		keyring:      keyring,
		db:           db,
		logger:       logger,
	}
}

// Withdraw processes a withdrawal attempt. On a match it flips the consent to
// WITHDRAWN, deletes every linked session and event in the same transaction,
// and records a success audit entry atomically with the deletion. On any
// failure it records a failure audit entry and returns the generic invalid
// code outcome.
func (s *WithdrawalService) Withdraw(ctx context.Context, secret, callerAddr string) (*models.WithdrawalResult, error) {
	requestedAt := utils.GetCurrentTimeMillis()
	addrHash := s.hashCallerAddr(callerAddr)

	if !utils.IsWellFormedWithdrawalSecret(secret) {
		if err := s.auditFailure(ctx, secret, addrHash, requestedAt, models.ErrCodeMalformedInput); err != nil {
			return nil, err
		}
		s.checkAbuse(ctx, addrHash, requestedAt)
		return genericFailureResult(), nil
	}

	match, err := s.findMatch(ctx, secret)
	if err != nil {
		return nil, err
	}

	if match == nil {
		if err := s.auditFailure(ctx, secret, addrHash, requestedAt, models.ErrCodeInvalidSecret); err != nil {
			return nil, err
		}
		s.checkAbuse(ctx, addrHash, requestedAt)
		return genericFailureResult(), nil
	}

	var sessionsDeleted, eventsDeleted int
	var deletedAt int64

	err = s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		won, err := s.consentDAO.WithdrawIfActiveWithTx(ctx, tx, match.ConsentID, utils.GetCurrentTimeMillis())
		if err != nil {
			return err
		}
		if !won {
			return errAlreadyWithdrawn
		}

		sessionsDeleted, eventsDeleted, err = s.telemetryDAO.DeleteParticipantDataWithTx(ctx, tx, match.ParticipantID)
		if err != nil {
			return err
		}

		// Deletion timestamp is only stamped once the cascade has actually run.
		deletedAt = utils.GetCurrentTimeMillis()
		if err := s.consentDAO.MarkDataDeletedWithTx(ctx, tx, match.ConsentID, deletedAt); err != nil {
			return err
		}

		entry := &models.WithdrawalAuditEntry{
			AuditID:         utils.GenerateAuditID(),
			ConsentID:       &match.ConsentID,
			PresentedDigest: s.keyring.Digest(secret, match.Salt),
			ParticipantID:   &match.ParticipantID,
			SessionsDeleted: sessionsDeleted,
			EventsDeleted:   eventsDeleted,
			Success:         true,
			RequestAddrHash: addrHash,
			RequestedAt:     requestedAt,
			CompletedAt:     &deletedAt,
		}
		return s.auditDAO.CreateWithTx(ctx, tx, entry)
	})

	if err != nil {
		if errors.Is(err, errAlreadyWithdrawn) {
			// Lost the race against a concurrent withdrawal of the same
			// record. Indistinguishable from an invalid code to the caller.
			if auditErr := s.auditFailure(ctx, secret, addrHash, requestedAt, models.ErrCodeInvalidSecret); auditErr != nil {
				return nil, auditErr
			}
			return genericFailureResult(), nil
		}
		return nil, fmt.Errorf("withdrawal transaction failed: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"consent_id":       match.ConsentID,
		"sessions_deleted": sessionsDeleted,
		"events_deleted":   eventsDeleted,
	}).Info("Withdrawal completed, participant data erased")

	return &models.WithdrawalResult{
		Success:         true,
		Message:         models.WithdrawalSuccessMessage,
		DeletedAt:       &deletedAt,
		SessionsDeleted: sessionsDeleted,
		EventsDeleted:   eventsDeleted,
	}, nil
}

// Export returns the full read-only snapshot of a participant's data, keyed
// by their withdrawal secret. Returns nil without error when no record
// matches; the handler maps that to the same generic outcome as an invalid
// withdrawal attempt.
func (s *WithdrawalService) Export(ctx context.Context, secret string) (*models.ParticipantExport, error) {
	if !utils.IsWellFormedWithdrawalSecret(secret) {
		return nil, nil
	}

	match, err := s.findMatch(ctx, secret)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, nil
	}

	sessions, err := s.telemetryDAO.ListSessionsByParticipant(ctx, match.ParticipantID)
	if err != nil {
		return nil, err
	}

	export := &models.ParticipantExport{
		ParticipantID: match.ParticipantID,
		StudyID:       match.StudyID,
		ConsentedAt:   match.ConsentedAt,
		PrivacyLevel:  match.PrivacyLevel,
		Sessions:      make([]models.SessionExport, 0, len(sessions)),
	}

	for _, session := range sessions {
		playSessions, err := s.telemetryDAO.ListPlaySessionsBySession(ctx, session.SessionID)
		if err != nil {
			return nil, err
		}

		sessionExport := models.SessionExport{
			MetricSession: session,
			PlaySessions:  make([]models.PlaySessionExport, 0, len(playSessions)),
		}

		for _, playSession := range playSessions {
			events, err := s.telemetryDAO.ListEventsByPlaySession(ctx, playSession.PlaySessionID)
			if err != nil {
				return nil, err
			}
			export.TotalEvents += len(events)
			sessionExport.PlaySessions = append(sessionExport.PlaySessions, models.PlaySessionExport{
				PlaySession: playSession,
				Events:      events,
			})
		}

		export.Sessions = append(export.Sessions, sessionExport)
	}
	export.TotalSessions = len(sessions)

	s.logger.WithFields(logrus.Fields{
		"participant_id": match.ParticipantID,
		"study_id":       match.StudyID,
		"sessions":       export.TotalSessions,
		"events":         export.TotalEvents,
	}).Info("Participant data export served")

	return export, nil
}

// findMatch scans every active consent record and verifies the presented
// secret against each one. The scan always visits the full set; it keeps the
// first match instead of returning early so the total work does not depend on
// where, or whether, a match sits in the ledger.
func (s *WithdrawalService) findMatch(ctx context.Context, secret string) (*models.ConsentRecord, error) {
	records, err := s.consentDAO.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active consents: %w", err)
	}

	if threshold := config.Get().Research.ScanWarnThreshold; threshold > 0 && len(records) >= threshold {
		s.logger.WithField("active_records", len(records)).
			Warn("Active consent population exceeds scan threshold")
	}

	var match *models.ConsentRecord
	for i := range records {
		if s.keyring.Verify(secret, records[i].Salt, records[i].WithdrawalDigest) && match == nil {
			match = &records[i]
		}
	}

	return match, nil
}

// auditFailure writes the append-only audit entry for a failed attempt. No
// consent or participant link; the presented value is recorded as an unsalted
// keyed digest, never as plaintext.
func (s *WithdrawalService) auditFailure(ctx context.Context, secret string, addrHash *string, requestedAt int64, errorCode string) error {
	completedAt := utils.GetCurrentTimeMillis()
	entry := &models.WithdrawalAuditEntry{
		AuditID:         utils.GenerateAuditID(),
		PresentedDigest: s.keyring.Digest(secret, ""),
		Success:         false,
		ErrorCode:       &errorCode,
		RequestAddrHash: addrHash,
		RequestedAt:     requestedAt,
		CompletedAt:     &completedAt,
	}

	if err := s.auditDAO.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record withdrawal audit entry: %w", err)
	}

	return nil
}

// checkAbuse counts recent failed attempts from the same hashed caller
// address and logs a warning past the configured threshold. Visibility only;
// it never changes the response.
func (s *WithdrawalService) checkAbuse(ctx context.Context, addrHash *string, now int64) {
	if addrHash == nil {
		return
	}

	cfg := config.Get().Research
	if cfg.AbuseAlertThreshold <= 0 {
		return
	}

	since := now - cfg.AbuseWindow.Milliseconds()
	failures, err := s.auditDAO.CountRecentFailures(ctx, *addrHash, since)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count recent withdrawal failures")
		return
	}

	if failures >= cfg.AbuseAlertThreshold {
		s.logger.WithFields(logrus.Fields{
			"addr_hash":       *addrHash,
			"recent_failures": failures,
		}).Warn("Repeated failed withdrawal attempts from one address")
	}
}

func (s *WithdrawalService) hashCallerAddr(callerAddr string) *string {
	if callerAddr == "" {
		return nil
	}
	hash := s.keyring.HashNetworkAddress(callerAddr)
	return &hash
}

func genericFailureResult() *models.WithdrawalResult {
	return &models.WithdrawalResult{
		Success: false,
		Message: models.GenericInvalidCodeMessage,
	}
}
