package errors

// ErrorCode identifies a machine-readable error category in API responses
type ErrorCode string

const (
	ErrorCode_HTTP_OK ErrorCode = "OK"

	// Generic codes
	ErrorCode_INTERNAL         ErrorCode = "INTERNAL"
	ErrorCode_INVALID_ARGUMENT ErrorCode = "INVALID_ARGUMENT"
	ErrorCode_NOT_FOUND        ErrorCode = "NOT_FOUND"

	// Ingestion codes
	ErrorCode_INVALID_PAYLOAD    ErrorCode = "INVALID_PAYLOAD"
	ErrorCode_VALIDATION_FAILED  ErrorCode = "VALIDATION_FAILED"
	ErrorCode_QUEUE_FULL         ErrorCode = "QUEUE_FULL"
	ErrorCode_NOTES_UNRESOLVABLE ErrorCode = "NOTES_UNRESOLVABLE"

	// Storage codes
	ErrorCode_DB_QUERY_FAILED ErrorCode = "DB_QUERY_FAILED"
)

// String returns the code as a plain string
func (c ErrorCode) String() string {
	return string(c)
}
