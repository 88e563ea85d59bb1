package services

// ServiceError represents a typed error with an HTTP status code. Business
// rule failures carry a user-facing message; unexpected failures are logged
// in full and surfaced with a generic message only.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}
