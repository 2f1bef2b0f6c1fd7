package dao

import (
	"context"
	"fmt"

	"github.com/webtics/research-consent-api/internal/database"
	"github.com/webtics/research-consent-api/internal/models"
)

// WithdrawalAuditDAO handles database operations for the withdrawal audit
// trail. The table is append-only: there are no update or delete operations.
type WithdrawalAuditDAO struct {
	db *database.DB
}

// NewWithdrawalAuditDAO creates a new WithdrawalAuditDAO instance
func NewWithdrawalAuditDAO(db *database.DB) *WithdrawalAuditDAO {
	return &WithdrawalAuditDAO{db: db}
}

const auditInsertQuery = `
	INSERT INTO WITHDRAWAL_AUDIT (
		AUDIT_ID, CONSENT_ID, PRESENTED_DIGEST, PARTICIPANT_ID,
		SESSIONS_DELETED, EVENTS_DELETED, SUCCESS, ERROR_CODE,
		REQUEST_ADDR_HASH, REQUESTED_AT, COMPLETED_AT
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Create inserts a new audit entry
func (dao *WithdrawalAuditDAO) Create(ctx context.Context, entry *models.WithdrawalAuditEntry) error {
	_, err := dao.db.ExecContext(
		ctx,
		auditInsertQuery,
		entry.AuditID,
		entry.ConsentID,
		entry.PresentedDigest,
		entry.ParticipantID,
		entry.SessionsDeleted,
		entry.EventsDeleted,
		entry.Success,
		entry.ErrorCode,
		entry.RequestAddrHash,
		entry.RequestedAt,
		entry.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create withdrawal audit entry: %w", err)
	}

	return nil
}

// CreateWithTx inserts a new audit entry using a transaction
func (dao *WithdrawalAuditDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, entry *models.WithdrawalAuditEntry) error {
	_, err := tx.ExecContext(
		ctx,
		auditInsertQuery,
		entry.AuditID,
		entry.ConsentID,
		entry.PresentedDigest,
		entry.ParticipantID,
		entry.SessionsDeleted,
		entry.EventsDeleted,
		entry.Success,
		entry.ErrorCode,
		entry.RequestAddrHash,
		entry.RequestedAt,
		entry.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create withdrawal audit entry with transaction: %w", err)
	}

	return nil
}

// GetByConsentID retrieves all audit entries linked to a consent record
func (dao *WithdrawalAuditDAO) GetByConsentID(ctx context.Context, consentID string) ([]models.WithdrawalAuditEntry, error) {
	query := `
		SELECT AUDIT_ID, CONSENT_ID, PRESENTED_DIGEST, PARTICIPANT_ID,
		       SESSIONS_DELETED, EVENTS_DELETED, SUCCESS, ERROR_CODE,
		       REQUEST_ADDR_HASH, REQUESTED_AT, COMPLETED_AT
		FROM WITHDRAWAL_AUDIT
		WHERE CONSENT_ID = ?
		ORDER BY REQUESTED_AT DESC
	`

	var entries []models.WithdrawalAuditEntry
	err := dao.db.SelectContext(ctx, &entries, query, consentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit entries by consent ID: %w", err)
	}

	return entries, nil
}

// CountRecentFailures returns the number of failed attempts from one hashed
// caller address since the given time, for abuse-detection bucketing.
func (dao *WithdrawalAuditDAO) CountRecentFailures(ctx context.Context, addrHash string, sinceMillis int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM WITHDRAWAL_AUDIT
		WHERE REQUEST_ADDR_HASH = ? AND SUCCESS = FALSE AND REQUESTED_AT >= ?
	`

	var count int
	err := dao.db.GetContext(ctx, &count, query, addrHash, sinceMillis)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent failed attempts: %w", err)
	}

	return count, nil
}
