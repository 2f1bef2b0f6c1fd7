package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/webtics/research-consent-api/internal/database"
	"github.com/webtics/research-consent-api/internal/models"
)

// StudyDAO handles database operations for study metadata
type StudyDAO struct {
	db *database.DB
}

// NewStudyDAO creates a new StudyDAO instance
func NewStudyDAO(db *database.DB) *StudyDAO {
	return &StudyDAO{db: db}
}

const studyColumns = `
	STUDY_ID, TITLE, DESCRIPTION, PRINCIPAL_INVESTIGATOR, INSTITUTION,
	IRB_PROTOCOL, IRB_APPROVAL_DATE, IRB_EXPIRY_DATE, DEFAULT_PRIVACY_LEVEL,
	DATA_RETENTION_DAYS, IS_ACTIVE, CREATED_AT, CLOSED_AT, CONTACT_EMAIL,
	WITHDRAWAL_URL
`

// Upsert inserts study metadata or updates it when the study already exists
func (dao *StudyDAO) Upsert(ctx context.Context, study *models.StudyMetadata) error {
	query := `
		INSERT INTO STUDY_METADATA (` + studyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			TITLE = VALUES(TITLE),
			DESCRIPTION = VALUES(DESCRIPTION),
			PRINCIPAL_INVESTIGATOR = VALUES(PRINCIPAL_INVESTIGATOR),
			INSTITUTION = VALUES(INSTITUTION),
			IRB_PROTOCOL = VALUES(IRB_PROTOCOL),
			IRB_APPROVAL_DATE = VALUES(IRB_APPROVAL_DATE),
			IRB_EXPIRY_DATE = VALUES(IRB_EXPIRY_DATE),
			DEFAULT_PRIVACY_LEVEL = VALUES(DEFAULT_PRIVACY_LEVEL),
			DATA_RETENTION_DAYS = VALUES(DATA_RETENTION_DAYS),
			IS_ACTIVE = VALUES(IS_ACTIVE),
			CLOSED_AT = VALUES(CLOSED_AT),
			CONTACT_EMAIL = VALUES(CONTACT_EMAIL),
			WITHDRAWAL_URL = VALUES(WITHDRAWAL_URL)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		study.StudyID,
		study.Title,
		study.Description,
		study.PrincipalInvestigator,
		study.Institution,
		study.IRBProtocol,
		study.IRBApprovalDate,
		study.IRBExpiryDate,
		study.DefaultPrivacyLevel,
		study.DataRetentionDays,
		study.IsActive,
		study.CreatedAt,
		study.ClosedAt,
		study.ContactEmail,
		study.WithdrawalURL,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert study metadata: %w", err)
	}

	return nil
}

// GetByID retrieves study metadata by study ID. Returns nil without error
// when the study is not registered.
func (dao *StudyDAO) GetByID(ctx context.Context, studyID string) (*models.StudyMetadata, error) {
	query := `SELECT ` + studyColumns + ` FROM STUDY_METADATA WHERE STUDY_ID = ?`

	var study models.StudyMetadata
	err := dao.db.GetContext(ctx, &study, query, studyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get study metadata: %w", err)
	}

	return &study, nil
}

// ListActive retrieves all studies still accepting participants
func (dao *StudyDAO) ListActive(ctx context.Context) ([]models.StudyMetadata, error) {
	query := `SELECT ` + studyColumns + ` FROM STUDY_METADATA WHERE IS_ACTIVE = TRUE ORDER BY CREATED_AT ASC`

	var studies []models.StudyMetadata
	err := dao.db.SelectContext(ctx, &studies, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active studies: %w", err)
	}

	return studies, nil
}
