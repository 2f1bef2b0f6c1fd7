package service

import (
	"context"
	"fmt"

	"github.com/webtics/research-consent-api/internal/dao"
	"github.com/webtics/research-consent-api/internal/models"
	"github.com/webtics/research-consent-api/pkg/utils"

	"github.com/sirupsen/logrus"
)

// StudyService handles business logic for the study metadata registry
type StudyService struct {
	studyDAO *dao.StudyDAO
	logger   *logrus.Logger
}

// NewStudyService creates a new study service instance
func NewStudyService(studyDAO *dao.StudyDAO, logger *logrus.Logger) *StudyService {
	return &StudyService{
		studyDAO: studyDAO,
		logger:   logger,
	}
}

// UpsertStudy registers a study or updates its metadata
func (s *StudyService) UpsertStudy(ctx context.Context, studyID string, request *models.StudyUpsertRequest) (*models.StudyMetadata, error) {
	if err := s.validateStudyUpsertRequest(studyID, request); err != nil {
		return nil, err
	}

	existing, err := s.studyDAO.GetByID(ctx, studyID)
	if err != nil {
		return nil, err
	}

	privacyLevel := request.DefaultPrivacyLevel
	if privacyLevel == "" {
		privacyLevel = string(models.PrivacyLevelAnonymous)
	}

	study := &models.StudyMetadata{
		StudyID:               studyID,
		Title:                 request.Title,
		Description:           optionalString(request.Description),
		PrincipalInvestigator: request.PrincipalInvestigator,
		Institution:           request.Institution,
		IRBProtocol:           request.IRBProtocol,
		IRBApprovalDate:       request.IRBApprovalDate,
		IRBExpiryDate:         request.IRBExpiryDate,
		DefaultPrivacyLevel:   privacyLevel,
		DataRetentionDays:     request.DataRetentionDays,
		IsActive:              true,
		CreatedAt:             utils.GetCurrentTimeMillis(),
		ContactEmail:          optionalString(request.ContactEmail),
		WithdrawalURL:         optionalString(request.WithdrawalURL),
	}

	if existing != nil {
		study.CreatedAt = existing.CreatedAt
		study.IsActive = existing.IsActive
		study.ClosedAt = existing.ClosedAt
	}

	if err := s.studyDAO.Upsert(ctx, study); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"study_id": studyID,
		"updated":  existing != nil,
	}).Info("Study metadata saved")

	return study, nil
}

// GetStudy retrieves study metadata
func (s *StudyService) GetStudy(ctx context.Context, studyID string) (*models.StudyMetadata, error) {
	if err := utils.ValidateStudyID(studyID); err != nil {
		return nil, err
	}

	study, err := s.studyDAO.GetByID(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if study == nil {
		return nil, fmt.Errorf("study not found: %s", studyID)
	}

	return study, nil
}

// ListActiveStudies returns all studies still accepting participants
func (s *StudyService) ListActiveStudies(ctx context.Context) ([]models.StudyMetadata, error) {
	return s.studyDAO.ListActive(ctx)
}

func (s *StudyService) validateStudyUpsertRequest(studyID string, request *models.StudyUpsertRequest) error {
	if err := utils.ValidateStudyID(studyID); err != nil {
		return err
	}
	if err := utils.ValidateFreeText("title", request.Title, 200); err != nil {
		return err
	}
	if err := utils.ValidateFreeText("principalInvestigator", request.PrincipalInvestigator, 100); err != nil {
		return err
	}
	if err := utils.ValidateFreeText("institution", request.Institution, 200); err != nil {
		return err
	}
	if err := utils.ValidateSafeString("irbProtocol", request.IRBProtocol, 100); err != nil {
		return err
	}
	if request.DefaultPrivacyLevel != "" && !models.IsValidPrivacyLevel(request.DefaultPrivacyLevel) {
		return fmt.Errorf("invalid privacy level: %s", request.DefaultPrivacyLevel)
	}
	if request.DataRetentionDays < 0 {
		return fmt.Errorf("dataRetentionDays must not be negative")
	}
	if request.Description != "" {
		if err := utils.ValidateMaxLength("description", request.Description, 2000); err != nil {
			return err
		}
	}
	if request.WithdrawalURL != "" {
		if err := utils.ValidateMaxLength("withdrawalUrl", request.WithdrawalURL, 500); err != nil {
			return err
		}
	}
	if request.ContactEmail != "" {
		if err := utils.ValidateEmail(request.ContactEmail); err != nil {
			return err
		}
	}
	return nil
}
