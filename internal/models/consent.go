package models

// SecretNotice is returned with every consent creation response. The secret
// is shown exactly once and cannot be recovered afterwards.
const SecretNotice = "SAVE THIS WITHDRAWAL CODE. You will need it to withdraw " +
	"from the study. The researcher cannot retrieve it for you."

// GenericInvalidCodeMessage is the single caller-facing message for every
// failed withdrawal or export attempt. It must not vary by failure cause.
const GenericInvalidCodeMessage = "Invalid withdrawal code. Please check your code and try again."

// WithdrawalSuccessMessage is returned after a completed withdrawal.
const WithdrawalSuccessMessage = "Your participation has been withdrawn. " +
	"All associated data has been permanently deleted."

// ConsentRecord represents the RESEARCH_CONSENT table. The plaintext
// withdrawal secret is never part of this model; only its keyed digest and
// the per-record salt are persisted.
type ConsentRecord struct {
	ConsentID        string  `db:"CONSENT_ID" json:"consentId"`
	StudyID          string  `db:"STUDY_ID" json:"studyId"`
	ParticipantID    string  `db:"PARTICIPANT_ID" json:"participantId"`
	WithdrawalDigest string  `db:"WITHDRAWAL_DIGEST" json:"-"`
	Salt             string  `db:"SALT" json:"-"`
	PrivacyLevel     string  `db:"PRIVACY_LEVEL" json:"privacyLevel"`
	AgeRange         *string `db:"AGE_RANGE" json:"ageRange,omitempty"`
	Condition        *string `db:"PARTICIPANT_CONDITION" json:"condition,omitempty"`
	RecruitmentSite  *string `db:"RECRUITMENT_SITE" json:"recruitmentSite,omitempty"`
	IRBProtocol      *string `db:"IRB_PROTOCOL" json:"irbProtocol,omitempty"`
	ConsentVersion   *string `db:"CONSENT_VERSION" json:"consentVersion,omitempty"`
	CurrentStatus    string  `db:"CURRENT_STATUS" json:"currentStatus"`
	ConsentedAt      int64   `db:"CONSENTED_AT" json:"consentedAt"`
	WithdrawnAt      *int64  `db:"WITHDRAWN_AT" json:"withdrawnAt,omitempty"`
	DataDeletedAt    *int64  `db:"DATA_DELETED_AT" json:"dataDeletedAt,omitempty"`
}

// WithdrawalAuditEntry represents the WITHDRAWAL_AUDIT table. Entries are
// append-only and written for every attempt, including failures; the consent
// link stays null when no record matched.
type WithdrawalAuditEntry struct {
	AuditID         string  `db:"AUDIT_ID" json:"auditId"`
	ConsentID       *string `db:"CONSENT_ID" json:"consentId,omitempty"`
	PresentedDigest string  `db:"PRESENTED_DIGEST" json:"presentedDigest"`
	ParticipantID   *string `db:"PARTICIPANT_ID" json:"participantId,omitempty"`
	SessionsDeleted int     `db:"SESSIONS_DELETED" json:"sessionsDeleted"`
	EventsDeleted   int     `db:"EVENTS_DELETED" json:"eventsDeleted"`
	Success         bool    `db:"SUCCESS" json:"success"`
	ErrorCode       *string `db:"ERROR_CODE" json:"errorCode,omitempty"`
	RequestAddrHash *string `db:"REQUEST_ADDR_HASH" json:"-"`
	RequestedAt     int64   `db:"REQUESTED_AT" json:"requestedAt"`
	CompletedAt     *int64  `db:"COMPLETED_AT" json:"completedAt,omitempty"`
}

// ParticipantInfo carries the optional aggregate participant fields. None of
// them may be individually identifying.
type ParticipantInfo struct {
	AgeRange        string `json:"ageRange,omitempty"`
	Condition       string `json:"condition,omitempty"`
	RecruitmentSite string `json:"recruitmentSite,omitempty"`
}

// ConsentCreateRequest is the API payload for creating a consent record
type ConsentCreateRequest struct {
	StudyID         string           `json:"studyId" binding:"required"`
	PrivacyLevel    string           `json:"privacyLevel,omitempty"`
	ParticipantInfo *ParticipantInfo `json:"participantInfo,omitempty"`
	IRBProtocol     string           `json:"irbProtocol,omitempty"`
	ConsentVersion  string           `json:"consentVersion,omitempty"`
}

// ConsentCreateResponse carries the pseudonymous participant id and the
// one-time withdrawal secret. This is the only place the plaintext secret
// ever appears.
type ConsentCreateResponse struct {
	ParticipantID    string `json:"participantId"`
	WithdrawalSecret string `json:"withdrawalCode"`
	ConsentID        string `json:"consentId"`
	StudyID          string `json:"studyId"`
	PrivacyLevel     string `json:"privacyLevel"`
	ConsentedAt      int64  `json:"consentedAt"`
	ImportantNotice  string `json:"importantNotice"`
}

// WithdrawalRequest is the API payload for a withdrawal attempt
type WithdrawalRequest struct {
	WithdrawalSecret string `json:"withdrawalCode" binding:"required"`
}

// WithdrawalResult is the caller-facing outcome of a withdrawal attempt. For
// any failure, Success is false and Message is GenericInvalidCodeMessage
// regardless of cause.
type WithdrawalResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	DeletedAt       *int64 `json:"deletedAt,omitempty"`
	SessionsDeleted int    `json:"sessionsDeleted"`
	EventsDeleted   int    `json:"eventsDeleted"`
}

// StudyStatsResponse is the aggregate researcher view of a study. It must
// never carry a participant id, digest, or salt.
type StudyStatsResponse struct {
	StudyID           string  `json:"studyId"`
	TotalConsented    int     `json:"totalConsented"`
	Active            int     `json:"activeParticipants"`
	Withdrawn         int     `json:"withdrawnParticipants"`
	PrivacyLevel      string  `json:"privacyLevel"`
	IRBProtocol       *string `json:"irbProtocol,omitempty"`
	DataRetentionDays int     `json:"dataRetentionDays"`
}

// ParticipantExport is the full read-only snapshot returned for a data-access
// request, keyed only by the pseudonymous participant id.
type ParticipantExport struct {
	ParticipantID string          `json:"participantId"`
	StudyID       string          `json:"studyId"`
	ConsentedAt   int64           `json:"consentedAt"`
	PrivacyLevel  string          `json:"privacyLevel"`
	TotalSessions int             `json:"totalSessions"`
	TotalEvents   int             `json:"totalEvents"`
	Sessions      []SessionExport `json:"sessions"`
}
