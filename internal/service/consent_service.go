package service

import (
	"context"
	"fmt"

	"github.com/webtics/research-consent-api/internal/config"
	"github.com/webtics/research-consent-api/internal/crypto"
	"github.com/webtics/research-consent-api/internal/dao"
	"github.com/webtics/research-consent-api/internal/database"
	"github.com/webtics/research-consent-api/internal/models"
	"github.com/webtics/research-consent-api/pkg/utils"

	"github.com/sirupsen/logrus"
)

// ConsentService handles business logic for consent enrollment and study
// aggregates
type ConsentService struct {
	consentDAO *dao.ConsentDAO
	studyDAO   *dao.StudyDAO
	keyring    *crypto.Keyring
	db         *database.DB
	logger     *logrus.Logger
}

// NewConsentService creates a new consent service instance
func NewConsentService(
	consentDAO *dao.ConsentDAO,
	studyDAO *dao.StudyDAO,
	keyring *crypto.Keyring,
	db *database.DB,
	logger *logrus.Logger,
) *ConsentService {
	return &ConsentService{
		consentDAO: consentDAO,
		studyDAO:   studyDAO,
		keyring:    keyring,
		db:         db,
		logger:     logger,
	}
}

// CreateConsent enrolls a participant: generates the pseudonymous participant
// id, a one-time withdrawal secret, and a per-record salt, then persists the
// keyed digest of the secret. The plaintext secret appears only in the
// response and is unrecoverable afterwards.
func (s *ConsentService) CreateConsent(ctx context.Context, request *models.ConsentCreateRequest) (*models.ConsentCreateResponse, error) {
	if err := s.validateConsentCreateRequest(request); err != nil {
		return nil, err
	}

	privacyLevel := request.PrivacyLevel
	if privacyLevel == "" {
		privacyLevel = string(models.PrivacyLevelAnonymous)
	}

	secret, err := crypto.NewWithdrawalSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate withdrawal secret: %w", err)
	}

	participantID, err := crypto.NewParticipantID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate participant id: %w", err)
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	consent := &models.ConsentRecord{
		ConsentID:        utils.GenerateConsentID(),
		StudyID:          request.StudyID,
		ParticipantID:    participantID,
		WithdrawalDigest: s.keyring.Digest(secret, salt),
		Salt:             salt,
		PrivacyLevel:     privacyLevel,
		CurrentStatus:    string(models.ConsentStatusActive),
		ConsentedAt:      utils.GetCurrentTimeMillis(),
	}

	if request.ParticipantInfo != nil {
		consent.AgeRange = optionalString(request.ParticipantInfo.AgeRange)
		consent.Condition = optionalString(request.ParticipantInfo.Condition)
		consent.RecruitmentSite = optionalString(request.ParticipantInfo.RecruitmentSite)
	}
	consent.IRBProtocol = optionalString(request.IRBProtocol)
	consent.ConsentVersion = optionalString(request.ConsentVersion)

	if err := s.consentDAO.Create(ctx, consent); err != nil {
		return nil, fmt.Errorf("failed to create consent record: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"consent_id":     consent.ConsentID,
		"study_id":       consent.StudyID,
		"participant_id": consent.ParticipantID,
		"privacy_level":  consent.PrivacyLevel,
	}).Info("Consent record created")

	return &models.ConsentCreateResponse{
		ParticipantID:    participantID,
		WithdrawalSecret: secret,
		ConsentID:        consent.ConsentID,
		StudyID:          consent.StudyID,
		PrivacyLevel:     consent.PrivacyLevel,
		ConsentedAt:      consent.ConsentedAt,
		ImportantNotice:  models.SecretNotice,
	}, nil
}

// GetStudyStats returns the aggregate researcher view of a study. The response
// carries counts and study-level fields only, never per-participant data.
func (s *ConsentService) GetStudyStats(ctx context.Context, studyID string) (*models.StudyStatsResponse, error) {
	if err := utils.ValidateStudyID(studyID); err != nil {
		return nil, err
	}

	counts, err := s.consentDAO.CountByStudy(ctx, studyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count consents for study: %w", err)
	}

	study, err := s.studyDAO.GetByID(ctx, studyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get study metadata: %w", err)
	}

	if counts.Total == 0 && study == nil {
		return nil, fmt.Errorf("study not found: %s", studyID)
	}

	stats := &models.StudyStatsResponse{
		StudyID:           studyID,
		TotalConsented:    counts.Total,
		Active:            counts.Active,
		Withdrawn:         counts.Withdrawn,
		PrivacyLevel:      string(models.PrivacyLevelAnonymous),
		DataRetentionDays: config.Get().Research.DefaultRetentionDays,
	}

	if study != nil {
		stats.PrivacyLevel = study.DefaultPrivacyLevel
		stats.IRBProtocol = &study.IRBProtocol
		stats.DataRetentionDays = study.DataRetentionDays
		return stats, nil
	}

	// No registered metadata; fall back to the first consent record's
	// study-level fields.
	first, err := s.consentDAO.GetFirstByStudy(ctx, studyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get first consent for study: %w", err)
	}
	if first != nil {
		stats.PrivacyLevel = first.PrivacyLevel
		stats.IRBProtocol = first.IRBProtocol
	}

	return stats, nil
}

func (s *ConsentService) validateConsentCreateRequest(request *models.ConsentCreateRequest) error {
	if err := utils.ValidateStudyID(request.StudyID); err != nil {
		return err
	}

	if request.PrivacyLevel != "" && !models.IsValidPrivacyLevel(request.PrivacyLevel) {
		return fmt.Errorf("invalid privacy level: %s", request.PrivacyLevel)
	}

	if request.ParticipantInfo != nil {
		info := request.ParticipantInfo
		for field, value := range map[string]string{
			"ageRange":        info.AgeRange,
			"condition":       info.Condition,
			"recruitmentSite": info.RecruitmentSite,
		} {
			if value == "" {
				continue
			}
			if err := utils.ValidateFreeText(field, value, 100); err != nil {
				return err
			}
		}
	}

	if request.IRBProtocol != "" {
		if err := utils.ValidateSafeString("irbProtocol", request.IRBProtocol, 100); err != nil {
			return err
		}
	}
	if request.ConsentVersion != "" {
		if err := utils.ValidateSafeString("consentVersion", request.ConsentVersion, 50); err != nil {
			return err
		}
	}

	return nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
