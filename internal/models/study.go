package models

// StudyMetadata represents the STUDY_METADATA table
type StudyMetadata struct {
	StudyID               string  `db:"STUDY_ID" json:"studyId"`
	Title                 string  `db:"TITLE" json:"title"`
	Description           *string `db:"DESCRIPTION" json:"description,omitempty"`
	PrincipalInvestigator string  `db:"PRINCIPAL_INVESTIGATOR" json:"principalInvestigator"`
	Institution           string  `db:"INSTITUTION" json:"institution"`
	IRBProtocol           string  `db:"IRB_PROTOCOL" json:"irbProtocol"`
	IRBApprovalDate       *int64  `db:"IRB_APPROVAL_DATE" json:"irbApprovalDate,omitempty"`
	IRBExpiryDate         *int64  `db:"IRB_EXPIRY_DATE" json:"irbExpiryDate,omitempty"`
	DefaultPrivacyLevel   string  `db:"DEFAULT_PRIVACY_LEVEL" json:"defaultPrivacyLevel"`
	DataRetentionDays     int     `db:"DATA_RETENTION_DAYS" json:"dataRetentionDays"`
	IsActive              bool    `db:"IS_ACTIVE" json:"isActive"`
	CreatedAt             int64   `db:"CREATED_AT" json:"createdAt"`
	ClosedAt              *int64  `db:"CLOSED_AT" json:"closedAt,omitempty"`
	ContactEmail          *string `db:"CONTACT_EMAIL" json:"contactEmail,omitempty"`
	WithdrawalURL         *string `db:"WITHDRAWAL_URL" json:"withdrawalUrl,omitempty"`
}

// StudyUpsertRequest is the API payload for registering or updating a study
type StudyUpsertRequest struct {
	Title                 string `json:"title" binding:"required"`
	Description           string `json:"description,omitempty"`
	PrincipalInvestigator string `json:"principalInvestigator" binding:"required"`
	Institution           string `json:"institution" binding:"required"`
	IRBProtocol           string `json:"irbProtocol" binding:"required"`
	IRBApprovalDate       *int64 `json:"irbApprovalDate,omitempty"`
	IRBExpiryDate         *int64 `json:"irbExpiryDate,omitempty"`
	DefaultPrivacyLevel   string `json:"defaultPrivacyLevel,omitempty"`
	DataRetentionDays     int    `json:"dataRetentionDays,omitempty"`
	ContactEmail          string `json:"contactEmail,omitempty"`
	WithdrawalURL         string `json:"withdrawalUrl,omitempty"`
}

// StudyConsentCounts holds the per-study consent aggregates
type StudyConsentCounts struct {
	Total     int `db:"TOTAL"`
	Active    int `db:"ACTIVE"`
	Withdrawn int `db:"WITHDRAWN"`
}
