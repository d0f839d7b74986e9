package service

import (
	"testing"

	"lab-sample-intake/internal/intake"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature_CreateAndVerify(t *testing.T) {
	env := newTestEnv(t, intake.Options{})
	admin := env.actor().UserID

	sig, err := env.signatures.CreateSignature(admin, "  Dr. Rana ", "1234567", "img")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rana", sig.Name)
	assert.NotEqual(t, "1234567", sig.PinHash)

	_, err = env.signatures.CreateSignature(admin, "Dr. Rana", "7654321", "")
	assert.ErrorIs(t, err, ErrSignatureExists)
	_, err = env.signatures.CreateSignature(admin, "Dr. Omar", "1234567", "")
	assert.ErrorIs(t, err, ErrPINInUse)
	_, err = env.signatures.CreateSignature(admin, "Dr. Omar", "12ab56", "")
	assert.ErrorIs(t, err, ErrInvalidPINFormat)

	ok, err := env.signatures.VerifyPIN("1234567")
	require.NoError(t, err)
	assert.True(t, ok.IsValid)
	assert.Equal(t, "Dr. Rana", ok.Name)
	assert.Equal(t, "img", ok.SignatureImage)

	miss, err := env.signatures.VerifyPIN("000000")
	require.NoError(t, err)
	assert.False(t, miss.IsValid)
	assert.Empty(t, miss.Name)

	_, err = env.signatures.VerifyPIN("123")
	assert.ErrorIs(t, err, ErrInvalidPINFormat)

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.PINVerifications.WithLabelValues("valid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.PINVerifications.WithLabelValues("invalid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.PINVerifications.WithLabelValues("malformed")))
}
