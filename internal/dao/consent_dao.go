package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/webtics/research-consent-api/internal/database"
	"github.com/webtics/research-consent-api/internal/models"
)

// ConsentDAO handles database operations for consent records
type ConsentDAO struct {
	db *database.DB
}

// NewConsentDAO creates a new ConsentDAO instance
func NewConsentDAO(db *database.DB) *ConsentDAO {
	return &ConsentDAO{db: db}
}

const consentColumns = `CONSENT_ID, STUDY_ID, PARTICIPANT_ID, WITHDRAWAL_DIGEST, SALT,
	       PRIVACY_LEVEL, AGE_RANGE, PARTICIPANT_CONDITION, RECRUITMENT_SITE,
	       IRB_PROTOCOL, CONSENT_VERSION, CURRENT_STATUS, CONSENTED_AT,
	       WITHDRAWN_AT, DATA_DELETED_AT`

// Create inserts a new consent record. Only the digest and salt are ever
// written; the caller must not pass the plaintext secret anywhere near here.
func (dao *ConsentDAO) Create(ctx context.Context, consent *models.ConsentRecord) error {
	query := `
		INSERT INTO RESEARCH_CONSENT (
			CONSENT_ID, STUDY_ID, PARTICIPANT_ID, WITHDRAWAL_DIGEST, SALT,
			PRIVACY_LEVEL, AGE_RANGE, PARTICIPANT_CONDITION, RECRUITMENT_SITE,
			IRB_PROTOCOL, CONSENT_VERSION, CURRENT_STATUS, CONSENTED_AT
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		consent.ConsentID,
		consent.StudyID,
		consent.ParticipantID,
		consent.WithdrawalDigest,
		consent.Salt,
		consent.PrivacyLevel,
		consent.AgeRange,
		consent.Condition,
		consent.RecruitmentSite,
		consent.IRBProtocol,
		consent.ConsentVersion,
		consent.CurrentStatus,
		consent.ConsentedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create consent record: %w", err)
	}

	return nil
}

// GetByID retrieves a consent record by ID
func (dao *ConsentDAO) GetByID(ctx context.Context, consentID string) (*models.ConsentRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM RESEARCH_CONSENT
		WHERE CONSENT_ID = ?
	`, consentColumns)

	var consent models.ConsentRecord
	err := dao.db.GetContext(ctx, &consent, query, consentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("consent record not found: %s", consentID)
		}
		return nil, fmt.Errorf("failed to get consent record: %w", err)
	}

	return &consent, nil
}

// ListActive retrieves every consent record in ACTIVE status, across all
// studies. The withdrawal matching scan needs the full active set because
// the presented secret carries no study tag.
func (dao *ConsentDAO) ListActive(ctx context.Context) ([]models.ConsentRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM RESEARCH_CONSENT
		WHERE CURRENT_STATUS = ?
		ORDER BY CONSENTED_AT ASC
	`, consentColumns)

	var consents []models.ConsentRecord
	err := dao.db.SelectContext(ctx, &consents, query, string(models.ConsentStatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to list active consent records: %w", err)
	}

	return consents, nil
}

// ListActiveByStudy retrieves ACTIVE consent records scoped to one study
func (dao *ConsentDAO) ListActiveByStudy(ctx context.Context, studyID string) ([]models.ConsentRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM RESEARCH_CONSENT
		WHERE CURRENT_STATUS = ? AND STUDY_ID = ?
		ORDER BY CONSENTED_AT ASC
	`, consentColumns)

	var consents []models.ConsentRecord
	err := dao.db.SelectContext(ctx, &consents, query, string(models.ConsentStatusActive), studyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active consent records for study: %w", err)
	}

	return consents, nil
}

// WithdrawIfActiveWithTx atomically transitions a consent record from ACTIVE
// to WITHDRAWN. Returns false when the record was not in ACTIVE status, which
// is how the loser of a concurrent withdrawal race is detected.
func (dao *ConsentDAO) WithdrawIfActiveWithTx(ctx context.Context, tx *database.Transaction, consentID string, withdrawnAt int64) (bool, error) {
	query := `
		UPDATE RESEARCH_CONSENT
		SET CURRENT_STATUS = ?, WITHDRAWN_AT = ?
		WHERE CONSENT_ID = ? AND CURRENT_STATUS = ?
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		string(models.ConsentStatusWithdrawn),
		withdrawnAt,
		consentID,
		string(models.ConsentStatusActive),
	)
	if err != nil {
		return false, fmt.Errorf("failed to withdraw consent record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// MarkDataDeletedWithTx stamps the data-deletion time on a consent record,
// after the cascade delete has completed within the same transaction.
func (dao *ConsentDAO) MarkDataDeletedWithTx(ctx context.Context, tx *database.Transaction, consentID string, dataDeletedAt int64) error {
	query := `
		UPDATE RESEARCH_CONSENT
		SET DATA_DELETED_AT = ?
		WHERE CONSENT_ID = ?
	`

	if _, err := tx.ExecContext(ctx, query, dataDeletedAt, consentID); err != nil {
		return fmt.Errorf("failed to stamp data deletion time: %w", err)
	}

	return nil
}

// CountByStudy returns the total/active/withdrawn consent counts for a study
func (dao *ConsentDAO) CountByStudy(ctx context.Context, studyID string) (*models.StudyConsentCounts, error) {
	query := `
		SELECT COUNT(*) AS TOTAL,
		       COALESCE(SUM(CASE WHEN CURRENT_STATUS = ? THEN 1 ELSE 0 END), 0) AS ACTIVE,
		       COALESCE(SUM(CASE WHEN CURRENT_STATUS = ? THEN 1 ELSE 0 END), 0) AS WITHDRAWN
		FROM RESEARCH_CONSENT
		WHERE STUDY_ID = ?
	`

	var counts models.StudyConsentCounts
	err := dao.db.GetContext(ctx, &counts, query,
		string(models.ConsentStatusActive),
		string(models.ConsentStatusWithdrawn),
		studyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count consents for study: %w", err)
	}

	return &counts, nil
}

// GetFirstByStudy retrieves the earliest consent record for a study, used by
// the statistics reader for privacy level and IRB fallback metadata.
func (dao *ConsentDAO) GetFirstByStudy(ctx context.Context, studyID string) (*models.ConsentRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM RESEARCH_CONSENT
		WHERE STUDY_ID = ?
		ORDER BY CONSENTED_AT ASC
		LIMIT 1
	`, consentColumns)

	var consent models.ConsentRecord
	err := dao.db.GetContext(ctx, &consent, query, studyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get first consent for study: %w", err)
	}

	return &consent, nil
}

// CountActive returns the total number of ACTIVE consent records, used for
// scan-capacity warnings.
func (dao *ConsentDAO) CountActive(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM RESEARCH_CONSENT WHERE CURRENT_STATUS = ?`

	var count int
	err := dao.db.GetContext(ctx, &count, query, string(models.ConsentStatusActive))
	if err != nil {
		return 0, fmt.Errorf("failed to count active consents: %w", err)
	}

	return count, nil
}
