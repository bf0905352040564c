package constants

// Backend error codes carried by providers.ProviderError.
const (
	ErrCodeNetworkError = "NETWORK_ERROR"
	ErrCodeDecodeError  = "DECODE_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeRejected     = "REJECTED"
	ErrCodeServerError  = "SERVER_ERROR"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeMissingToken = "MISSING_TOKEN"
	ErrCodeCanceled     = "CANCELED"
)

// BackendErrorMessages are fallbacks used when the backend sends no message.
var BackendErrorMessages = map[string]string{
	ErrCodeNetworkError: "Unable to reach the server. Please check your connection",
	ErrCodeDecodeError:  "Unexpected response from the server",
	ErrCodeUnauthorized: "You are not signed in",
	ErrCodeForbidden:    "You do not have permission to do that",
	ErrCodeNotFound:     "The requested item was not found",
	ErrCodeRateLimited:  "Rate limit exceeded. Please try again later",
	ErrCodeMissingToken: "You are not signed in",
	ErrCodeCanceled:     "Request was cancelled",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := BackendErrorMessages[code]; exists {
		return msg
	}
	return MsgGenericFailure
}
