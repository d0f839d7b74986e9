package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	InitJWT("access", "refresh", time.Minute, time.Hour)

	token, err := GenerateAccessToken(7, "tech1", "technician")
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "tech1", claims.Username)
	assert.Equal(t, "technician", claims.Role)
}

func TestAccessToken_RejectsOtherSecret(t *testing.T) {
	InitJWT("access", "refresh", time.Minute, time.Hour)
	token, err := GenerateAccessToken(1, "a", "user")
	require.NoError(t, err)

	InitJWT("rotated", "refresh", time.Minute, time.Hour)
	_, err = ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_Expired(t *testing.T) {
	InitJWT("access", "refresh", -time.Minute, time.Hour)
	token, err := GenerateAccessToken(1, "a", "user")
	require.NoError(t, err)

	_, err = ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestHashRefreshToken_Stable(t *testing.T) {
	assert.Equal(t, HashRefreshToken("abc"), HashRefreshToken("abc"))
	assert.NotEqual(t, HashRefreshToken("abc"), HashRefreshToken("abd"))
	assert.Len(t, HashRefreshToken("abc"), 64)
}

func TestValidPIN(t *testing.T) {
	cases := map[string]bool{
		"123456":    true,
		"12345678":  true,
		"12345":     false,
		"123456789": false,
		"12a456":    false,
		"":          false,
	}
	for pin, want := range cases {
		assert.Equal(t, want, ValidPIN(pin), pin)
	}
}

func TestPassword_HashAndCompare(t *testing.T) {
	hash, err := HashPassword("482913")
	require.NoError(t, err)
	assert.True(t, ComparePassword(hash, "482913"))
	assert.False(t, ComparePassword(hash, "482914"))
}

func TestValidationErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	ValidationErrorResponse(c, []string{"Company is required", "Farm is required"})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Success bool     `json:"success"`
		Errors  []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, []string{"Company is required", "Farm is required"}, body.Errors)
}
