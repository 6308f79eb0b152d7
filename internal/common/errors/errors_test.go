package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldownErrorRoundsUp(t *testing.T) {
	err := NewCooldownError(90*time.Minute + 500*time.Millisecond)

	assert.Equal(t, ErrCodeCooldownActive, err.Code)
	assert.Equal(t, int64(5401), err.Details["remaining_seconds"])
	assert.Equal(t, "Next claim available in 1h 30m", err.Message)
	assert.True(t, err.IsRetryable())
}

func TestAsAppErrorFindsWrapped(t *testing.T) {
	base := NewSelfReferralError()
	wrapped := fmt.Errorf("apply referral: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, base, appErr)
	assert.True(t, HasCode(wrapped, ErrCodeSelfReferral))
	assert.False(t, HasCode(wrapped, ErrCodeReferralApplied))
	assert.False(t, HasCode(nil, ErrCodeSelfReferral))
}

func TestClassification(t *testing.T) {
	assert.True(t, NewInvalidWalletError("abc").IsValidation())
	assert.True(t, NewTaskNotFoundError("original", 9).IsNotFound())
	assert.True(t, NewCorruptStateError("ledger:user:1", fmt.Errorf("bad json")).IsInternal())
	assert.False(t, NewReferralAppliedError().IsRetryable())
	assert.True(t, NewPoolExhaustedError(2, "Evol 2 – Charger").IsRetryable())
}

func TestErrorString(t *testing.T) {
	err := Wrap(fmt.Errorf("boom"), ErrCodeDatabaseError, "save failed")
	assert.Equal(t, "[DATABASE_ERROR] save failed: boom", err.Error())
	assert.Equal(t, "[SELF_REFERRAL] You cannot use your own referral code", NewSelfReferralError().Error())
}
