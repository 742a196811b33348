package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped copies of a sentinel compare equal
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound  = NewDomainError("NOT_FOUND", "Resource not found")
	ErrNoMedia   = NewDomainError("NO_MEDIA", "No media records available for resolution")
	ErrJobLocked = NewDomainError("JOB_LOCKED", "Another reconciliation run holds the lock")
)
