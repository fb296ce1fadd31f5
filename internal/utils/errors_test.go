// internal/utils/errors_test.go
package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{NotFound("Collaboration"), http.StatusNotFound, "NOT_FOUND"},
		{AccessDenied("You do not own this campaign"), http.StatusForbidden, "ACCESS_DENIED"},
		{Validation("Quantity must be positive"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{StateConflict("Only approved content can be published"), http.StatusConflict, "STATE_CONFLICT"},
		{Upstream("Media upload failed", errors.New("s3 timeout")), http.StatusBadGateway, "UPSTREAM_FAILURE"},
		{Duplicate("Collaboration already exists"), http.StatusConflict, "DUPLICATE_COLLABORATION"},
		{fmt.Errorf("wrapped: %w", StateConflict("stale")), http.StatusConflict, "STATE_CONFLICT"},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		HandleError(c, tt.err)

		assert.Equal(t, tt.status, w.Code, tt.err.Error())
		var body APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		require.NotNil(t, body.Error)
		assert.Equal(t, tt.code, body.Error.Code)
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("checkout: %w", Validation("Insufficient stock"))
	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(err, KindStateConflict))
	assert.False(t, IsKind(errors.New("plain"), KindValidation))
}

func TestValidateRequestDecimalAndPlatform(t *testing.T) {
	type req struct {
		Platform string          `validate:"required,platform"`
		Rate     decimal.Decimal `validate:"gte=0,lte=100"`
	}

	assert.NoError(t, ValidateRequest(req{Platform: "instagram", Rate: decimal.NewFromInt(10)}))

	err := ValidateRequest(req{Platform: "Instagram!", Rate: decimal.NewFromInt(101)})
	require.Error(t, err)
	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, KindValidation, appErr.Kind)
	details, ok := appErr.Details.([]ValidationError)
	require.True(t, ok)
	assert.Len(t, details, 2)
}

func TestGenerateReferralCode(t *testing.T) {
	code, err := GenerateReferralCode()
	require.NoError(t, err)
	assert.Len(t, code, 11)
	assert.Equal(t, "REF", code[:3])
}
