package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode identifies an application error class.
type ErrorCode string

const (
	// Generic errors
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"

	// Claim errors
	ErrCodeCooldownActive ErrorCode = "COOLDOWN_ACTIVE"
	ErrCodePoolExhausted  ErrorCode = "POOL_EXHAUSTED"

	// Referral errors
	ErrCodeSelfReferral        ErrorCode = "SELF_REFERRAL"
	ErrCodeReferralApplied     ErrorCode = "REFERRAL_ALREADY_APPLIED"
	ErrCodeInvalidReferralCode ErrorCode = "INVALID_REFERRAL_CODE"

	// Profile errors
	ErrCodeInvalidWalletFormat ErrorCode = "INVALID_WALLET_FORMAT"
	ErrCodeTaskNotFound        ErrorCode = "TASK_NOT_FOUND"
	ErrCodeTaskCompleted       ErrorCode = "TASK_ALREADY_COMPLETED"
	ErrCodeUnranked            ErrorCode = "USER_UNRANKED"
	ErrCodeTierNotFound        ErrorCode = "TIER_NOT_FOUND"

	// Storage errors
	ErrCodeDatabaseError     ErrorCode = "DATABASE_ERROR"
	ErrCodeTransactionFailed ErrorCode = "TRANSACTION_FAILED"
	ErrCodeConnectionFailed  ErrorCode = "CONNECTION_FAILED"
	ErrCodeLockTimeout       ErrorCode = "LOCK_TIMEOUT"
	ErrCodeCorruptState      ErrorCode = "CORRUPT_PERSISTED_STATE"

	// Cache errors
	ErrCodeCacheError ErrorCode = "CACHE_ERROR"
)

// AppError is a typed application error carried up to the transport layer.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"context,omitempty"`
	Stack     []string               `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound ||
		e.Code == ErrCodeTaskNotFound ||
		e.Code == ErrCodeUnranked ||
		e.Code == ErrCodeTierNotFound
}

func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation ||
		e.Code == ErrCodeBadRequest ||
		e.Code == ErrCodeInvalidWalletFormat ||
		e.Code == ErrCodeInvalidReferralCode ||
		e.Code == ErrCodeSelfReferral
}

func (e *AppError) IsUnauthorized() bool {
	return e.Code == ErrCodeUnauthorized || e.Code == ErrCodeForbidden
}

// IsRetryable reports whether the same request may succeed later without changes.
func (e *AppError) IsRetryable() bool {
	return e.Code == ErrCodeCooldownActive ||
		e.Code == ErrCodePoolExhausted ||
		e.Code == ErrCodeLockTimeout
}

func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeDatabaseError ||
		e.Code == ErrCodeTransactionFailed ||
		e.Code == ErrCodeConnectionFailed ||
		e.Code == ErrCodeCacheError ||
		e.Code == ErrCodeCorruptState
}

func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func (e *AppError) WithUserID(userID string) *AppError {
	e.UserID = userID
	return e
}

// New creates an application error with a captured stack.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStackTrace(),
	}
}

// Wrap wraps an existing error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewNotFoundError(resource, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason)).
		WithDetail("reason", reason)
}

func NewForbiddenError(reason string) *AppError {
	return New(ErrCodeForbidden, fmt.Sprintf("Forbidden: %s", reason)).
		WithDetail("reason", reason)
}

func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("Database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCacheError, fmt.Sprintf("Cache operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewLockTimeoutError(resource string, waited time.Duration) *AppError {
	return New(ErrCodeLockTimeout, fmt.Sprintf("%s is busy, try again in a moment", resource)).
		WithDetail("resource", resource).
		WithDetail("waited", waited.String())
}

// NewCorruptStateError describes a persisted record that could not be decoded.
func NewCorruptStateError(key string, err error) *AppError {
	return Wrap(err, ErrCodeCorruptState, fmt.Sprintf("Persisted state for %s is malformed, treating as empty", key)).
		WithDetail("key", key)
}

// NewCooldownError reports an active claim cooldown with the seconds left.
func NewCooldownError(remaining time.Duration) *AppError {
	secs := int64(remaining / time.Second)
	if remaining%time.Second != 0 {
		secs++
	}
	return New(ErrCodeCooldownActive, fmt.Sprintf("Next claim available in %dh %dm", secs/3600, secs%3600/60)).
		WithDetail("remaining_seconds", secs)
}

// NewPoolExhaustedError reports that the tier pool has no headroom left.
func NewPoolExhaustedError(level int, tierName string) *AppError {
	return New(ErrCodePoolExhausted, fmt.Sprintf("The %s reward pool is exhausted. Wait for a refill", tierName)).
		WithDetail("tier", level)
}

func NewSelfReferralError() *AppError {
	return New(ErrCodeSelfReferral, "You cannot use your own referral code")
}

func NewReferralAppliedError() *AppError {
	return New(ErrCodeReferralApplied, "A referral code has already been applied to this account")
}

func NewInvalidReferralCodeError(code string) *AppError {
	return New(ErrCodeInvalidReferralCode, "Referral code is not valid, expected a code like REF123456").
		WithDetail("code", code)
}

func NewInvalidWalletError(address string) *AppError {
	return New(ErrCodeInvalidWalletFormat, "Wallet address is not valid, use the format gxr1xxxx").
		WithDetail("address", address)
}

func NewTaskNotFoundError(category string, index int) *AppError {
	return New(ErrCodeTaskNotFound, fmt.Sprintf("Task %s/%d does not exist", category, index)).
		WithDetail("category", category).
		WithDetail("index", index)
}

func NewTaskCompletedError(category string, index int) *AppError {
	return New(ErrCodeTaskCompleted, "This task is already completed").
		WithDetail("category", category).
		WithDetail("index", index)
}

func NewUnrankedError(userID string) *AppError {
	return New(ErrCodeUnranked, "You are not ranked yet, claim your first reward to enter the leaderboard").
		WithUserID(userID)
}

func NewTierNotFoundError(level int) *AppError {
	return New(ErrCodeTierNotFound, fmt.Sprintf("Evolution tier %d does not exist", level)).
		WithDetail("tier", level)
}

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil {
		return nil, false
	}
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
