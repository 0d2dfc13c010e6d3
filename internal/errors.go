package internal

const (
	// ErrCodeUnknown is the error code for unknown errors
	ErrCodeUnknown = "UNKNOWN_ERROR"
	// ErrCodeRepoError is returned when the request to a repo fails with an error
	ErrCodeRepoError = "STORAGE_QUERY_FAILED"
	// ErrCodeRequiredFieldMissing is returned when at least one required field has not been populated on an incoming
	// request
	ErrCodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	// ErrCodeIllegalJSON is returned when the request did not contain a valid JSON body
	ErrCodeIllegalJSON = "ILLEGAL_JSON_REQUEST"
	// ErrCodeIllegalValue is returned when any field in the transferred data does not validate for some reason
	ErrCodeIllegalValue = "ILLEGAL_VALUE"
	// ErrCodeEventNotFound is returned when an operation works on an event that does not exist
	ErrCodeEventNotFound = "EVENT_NOT_FOUND"
	// ErrCodeEventEnded is returned when a submission arrives for an event that has already ended
	ErrCodeEventEnded = "EVENT_ENDED"
	// ErrCodeEventInactive is returned when a submission arrives for an event the DJ has currently
	// switched off - recurring events toggle this between sessions
	ErrCodeEventInactive = "EVENT_INACTIVE"
	// ErrCodeRequestNotFound is returned when an operation works on a song request that does not exist
	ErrCodeRequestNotFound = "REQUEST_NOT_FOUND"
	// ErrCodeBlocklistEntryNotFound is returned when an operation works on a block list entry that does not exist
	ErrCodeBlocklistEntryNotFound = "BLOCKLIST_ENTRY_NOT_FOUND"
	// ErrCodeTooManyRequests is returned when an identity has exceeded the event's hourly submission limit
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
	// ErrCodeSongBlocked is returned when a submitted song matches one of the DJ's block patterns.
	// The message deliberately does not reveal which pattern matched
	ErrCodeSongBlocked = "SONG_BLOCKED"
	// ErrCodeAlreadyUpvoted is returned when an identity tries to upvote the same request twice
	ErrCodeAlreadyUpvoted = "ALREADY_UPVOTED"
	// ErrCodeIllegalTransition is returned when a status update would move a request along an
	// unsupported transition of the status machine
	ErrCodeIllegalTransition = "ILLEGAL_STATUS_TRANSITION"
	// ErrCodeNotAuthorized is returned when a DJ tries to operate on an event or request owned by somebody else
	ErrCodeNotAuthorized = "NOT_AUTHORIZED"
	// ErrCodeLoginFailed is returned when the DJ fails to login for some reason
	ErrCodeLoginFailed = "LOGIN_FAILED"
	// ErrCodeNotLoggedIn is returned when an API that needs a logged-in DJ is accessed without an
	// authenticated session
	ErrCodeNotLoggedIn = "NOT_LOGGED_IN"
)

// HTTPError is an error that contains information about the error message to return to the client
type HTTPError struct {
	message string
	code    string
	status  int
	data    interface{}
}

// MakeError creates a new HTTPError with the given contents
func MakeError(status int, code, message string) *HTTPError {
	return MakeErrorWithData(status, code, message, nil)
}

// MakeErrorWithData creates a new HTTPError with the given contents and an additional data element
func MakeErrorWithData(status int, code, message string, data interface{}) *HTTPError {
	return &HTTPError{message, code, status, data}
}

// Error implements the errorer interface
func (e *HTTPError) Error() string {
	return e.message
}

// Status returns the HTTP status that should be returned
func (e *HTTPError) Status() int {
	return e.status
}

// ErrorCode returns the machine-readable error code
func (e *HTTPError) ErrorCode() string {
	return e.code
}

// Data returns additional data about the error
func (e *HTTPError) Data() interface{} {
	return e.data
}
