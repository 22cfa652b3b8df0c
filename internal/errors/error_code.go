package errors

// ErrorCode identifies a class of failure.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInsufficientData     ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 104
	ErrCodeInvalidProvider      ErrorCode = 105

	// Market data errors (200-299)
	ErrCodeTickerNotFound  ErrorCode = 200
	ErrCodeNoDataForPeriod ErrorCode = 201
	ErrCodeFetchFailed     ErrorCode = 202
	ErrCodeParseFailed     ErrorCode = 203

	// Infrastructure errors (300-399)
	ErrCodeCacheFailed        ErrorCode = 300
	ErrCodeStorageFailed      ErrorCode = 301
	ErrCodeNotificationFailed ErrorCode = 302
)
