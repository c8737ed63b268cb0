package services

import "errors"

// Error kinds. Handlers map them to HTTP statuses.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error is a client-facing failure of a given kind
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches the error's kind as well as the error itself
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrInvalidIdentifier  = newError(ErrValidation, "Invalid event ID format")
	ErrInvalidUserID      = newError(ErrValidation, "Invalid user ID format")
	ErrInvalidFeedbackID  = newError(ErrValidation, "Invalid feedback ID format")
	ErrMissingFields      = newError(ErrValidation, "All fields are required")
	ErrInvalidRating      = newError(ErrValidation, "Rating must be between 1 and 5")
	ErrInvalidSkillLevel  = newError(ErrValidation, "Skill level must be one of Beginner, Intermediate, Advanced, Professional")
	ErrInvalidDate        = newError(ErrValidation, "Invalid date")
	ErrInvalidMaxPlayers  = newError(ErrValidation, "maxPlayers must be a positive integer")
	ErrWeakPassword       = newError(ErrValidation, "Password must be at least 6 characters")
	ErrInvalidPhoto       = newError(ErrValidation, "Only image uploads are allowed")
	ErrInvalidCredentials = newError(ErrUnauthorized, "Invalid credentials")
	ErrInvalidToken       = newError(ErrUnauthorized, "Invalid or expired token")
	ErrEventNotFound      = newError(ErrNotFound, "Event not found")
	ErrUserNotFound       = newError(ErrNotFound, "User not found")
	ErrFeedbackNotFound   = newError(ErrNotFound, "Feedback not found")
	ErrEmailTaken         = newError(ErrConflict, "User already exists")
	ErrHostCannotJoin     = newError(ErrConflict, "You are the host of this event.")
	ErrAlreadyJoined      = newError(ErrConflict, "You have already joined this event.")
	ErrEventFull          = newError(ErrConflict, "Event is already full.")
)
