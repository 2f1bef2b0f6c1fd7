package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtics/research-consent-api/internal/models"
)

func TestWithdrawEndpoint_MalformedCodeGetsGenericResponse(t *testing.T) {
	stack := newTestStack(t)

	stack.mock.ExpectExec("INSERT INTO WITHDRAWAL_AUDIT").
		WillReturnResult(sqlmock.NewResult(1, 1))
	stack.mock.ExpectQuery("SELECT COUNT(.+) FROM WITHDRAWAL_AUDIT").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))

	recorder := stack.do(t, http.MethodPost, "/api/v1/research/withdraw", models.WithdrawalRequest{
		WithdrawalSecret: "not-a-real-code",
	})

	assert.Equal(t, http.StatusNotFound, recorder.Code)

	var result models.WithdrawalResult
	decodeJSON(t, recorder, &result)
	assert.False(t, result.Success)
	assert.Equal(t, models.GenericInvalidCodeMessage, result.Message)

	assert.NoError(t, stack.mock.ExpectationsWereMet())
}

func TestWithdrawEndpoint_UnmatchedCodeSameResponseShape(t *testing.T) {
	stack := newTestStack(t)

	stack.mock.ExpectQuery("SELECT (.+) FROM RESEARCH_CONSENT").
		WillReturnRows(sqlmock.NewRows([]string{
			"CONSENT_ID", "STUDY_ID", "PARTICIPANT_ID", "WITHDRAWAL_DIGEST", "SALT",
			"PRIVACY_LEVEL", "AGE_RANGE", "PARTICIPANT_CONDITION", "RECRUITMENT_SITE",
			"IRB_PROTOCOL", "CONSENT_VERSION", "CURRENT_STATUS", "CONSENTED_AT",
			"WITHDRAWN_AT", "DATA_DELETED_AT",
		}))
	stack.mock.ExpectExec("INSERT INTO WITHDRAWAL_AUDIT").
		WillReturnResult(sqlmock.NewResult(1, 1))
	stack.mock.ExpectQuery("SELECT COUNT(.+) FROM WITHDRAWAL_AUDIT").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))

	recorder := stack.do(t, http.MethodPost, "/api/v1/research/withdraw", models.WithdrawalRequest{
		WithdrawalSecret: "WC-00112233-4455-6677-8899-aabbccddeeff",
	})

	// A well-formed but unknown code must be indistinguishable from a
	// malformed one at the HTTP layer.
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	var result models.WithdrawalResult
	decodeJSON(t, recorder, &result)
	assert.False(t, result.Success)
	assert.Equal(t, models.GenericInvalidCodeMessage, result.Message)

	assert.NoError(t, stack.mock.ExpectationsWereMet())
}

func TestWithdrawEndpoint_StoreFailureStaysOpaque(t *testing.T) {
	stack := newTestStack(t)

	storeErr := errors.New("Error 1146: Table 'research_api.RESEARCH_CONSENT' doesn't exist")
	stack.mock.ExpectQuery("SELECT (.+) FROM RESEARCH_CONSENT").
		WillReturnError(storeErr)

	recorder := stack.do(t, http.MethodPost, "/api/v1/research/withdraw", models.WithdrawalRequest{
		WithdrawalSecret: "WC-00112233-4455-6677-8899-aabbccddeeff",
	})

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	// Internal store errors must never reach the caller.
	body := recorder.Body.String()
	assert.NotContains(t, body, "1146")
	assert.NotContains(t, body, "RESEARCH_CONSENT")

	var response models.ErrorResponse
	decodeJSON(t, recorder, &response)
	assert.Equal(t, models.ErrCodeInternalError, response.Code)
	assert.Equal(t, "Failed to process withdrawal", response.Message)
}

func TestWithdrawEndpoint_MissingBody(t *testing.T) {
	stack := newTestStack(t)

	recorder := stack.do(t, http.MethodPost, "/api/v1/research/withdraw", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestExportEndpoint_MissingCode(t *testing.T) {
	stack := newTestStack(t)

	recorder := stack.do(t, http.MethodGet, "/api/v1/research/export", nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestExportEndpoint_UnmatchedCode(t *testing.T) {
	stack := newTestStack(t)

	stack.mock.ExpectQuery("SELECT (.+) FROM RESEARCH_CONSENT").
		WillReturnRows(sqlmock.NewRows([]string{
			"CONSENT_ID", "STUDY_ID", "PARTICIPANT_ID", "WITHDRAWAL_DIGEST", "SALT",
			"PRIVACY_LEVEL", "AGE_RANGE", "PARTICIPANT_CONDITION", "RECRUITMENT_SITE",
			"IRB_PROTOCOL", "CONSENT_VERSION", "CURRENT_STATUS", "CONSENTED_AT",
			"WITHDRAWN_AT", "DATA_DELETED_AT",
		}))

	recorder := stack.do(t, http.MethodGet,
		"/api/v1/research/export?withdrawalCode=WC-00112233-4455-6677-8899-aabbccddeeff", nil)

	assert.Equal(t, http.StatusNotFound, recorder.Code)

	var response models.ErrorResponse
	decodeJSON(t, recorder, &response)
	assert.Equal(t, models.GenericInvalidCodeMessage, response.Message)
}

func TestConsentEndpoint_CreateReturnsSecretOnce(t *testing.T) {
	stack := newTestStack(t)

	stack.mock.ExpectExec("INSERT INTO RESEARCH_CONSENT").
		WillReturnResult(sqlmock.NewResult(1, 1))

	recorder := stack.do(t, http.MethodPost, "/api/v1/research/consent", models.ConsentCreateRequest{
		StudyID: "study-alpha",
	})

	require.Equal(t, http.StatusCreated, recorder.Code)

	var response models.ConsentCreateResponse
	decodeJSON(t, recorder, &response)
	assert.Regexp(t, `^WC-`, response.WithdrawalSecret)
	assert.Regexp(t, `^P-`, response.ParticipantID)
	assert.Equal(t, models.SecretNotice, response.ImportantNotice)

	assert.NoError(t, stack.mock.ExpectationsWereMet())
}

func TestConsentEndpoint_RejectsBadPrivacyLevel(t *testing.T) {
	stack := newTestStack(t)

	recorder := stack.do(t, http.MethodPost, "/api/v1/research/consent", models.ConsentCreateRequest{
		StudyID:      "study-alpha",
		PrivacyLevel: "plaid",
	})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
