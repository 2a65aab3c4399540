package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
)

// Valid reports whether r is one of the roles the platform issues.
func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleInstructor
}

// Session is the authenticated identity of the current user.
type Session struct {
	Token string   `json:"token"`
	Role  UserRole `json:"role"`
}

// Authenticated reports whether a token is present.
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.Token) != ""
}

type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserRef is a reference to a user that the backend sends either as a bare
// id string or as a populated {_id, name} object.
type UserRef struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = UserRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = UserRef{ID: id}
		return nil
	}
	type plain UserRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = UserRef(p)
	return nil
}

type Enrollment struct {
	Student UserRef `json:"student"`
}

type Course struct {
	ID               string       `json:"_id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Content          string       `json:"content"`
	Instructor       UserRef      `json:"instructor"`
	EnrolledStudents []Enrollment `json:"enrolledStudents"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// IsEnrolled reports whether userID appears among the enrolled students.
func (c Course) IsEnrolled(userID string) bool {
	if userID == "" {
		return false
	}
	for _, e := range c.EnrolledStudents {
		if e.Student.ID == userID {
			return true
		}
	}
	return false
}

// TaughtBy reports whether userID is the course instructor.
func (c Course) TaughtBy(userID string) bool {
	return userID != "" && c.Instructor.ID == userID
}

// CourseInput carries the editable fields of a course.
type CourseInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// Ack is the acknowledgement returned by mutating course endpoints.
// Course is set when the backend echoes the created or updated entity.
type Ack struct {
	Message string  `json:"message,omitempty"`
	Course  *Course `json:"course,omitempty"`
}
