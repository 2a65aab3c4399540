package app

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyEnrolled is returned before any network call when the user
	// is already on the course's roster.
	ErrAlreadyEnrolled = errors.New("you are already enrolled in this course")
	// ErrOwnCourse is returned when an instructor tries to enroll in a
	// course they teach.
	ErrOwnCourse = errors.New("instructors cannot enroll in their own course")
	// ErrInstructorOnly is returned when a student session tries to manage
	// courses.
	ErrInstructorOnly = errors.New("only instructors can manage courses")
	// ErrNotLoggedIn is returned by operations that need a stored session.
	ErrNotLoggedIn = errors.New("not logged in")
)

// ValidationError reports local input that was rejected before any request
// was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
