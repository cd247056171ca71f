package model

import (
	"encoding/json"
	"time"
)

// Category groups courses
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
}

// Course is owned by exactly one instructor
type Course struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	CategoryID     *int64    `json:"category"`
	CategoryName   *string   `json:"category_name"`
	InstructorID   int64     `json:"instructor"`
	InstructorName string    `json:"instructor_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CourseRequest is used for both create and (partial) update.
type CourseRequest struct {
	Title        *string    `json:"title" binding:"omitempty,max=200"`
	Description  *string    `json:"description"`
	CategoryID   OptionalID `json:"category"`
	InstructorID *int64     `json:"instructor"`
}

// OptionalID tells an absent field apart from an explicit null.
// Set is true whenever the key was present in the payload.
type OptionalID struct {
	Set   bool
	Value *int64
}

// SomeID is a present, non-null id.
func SomeID(id int64) OptionalID { return OptionalID{Set: true, Value: &id} }

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

// CourseScope restricts course queries to what a caller may see.
type CourseScope struct {
	InstructorID *int64
}

// Enrollment links a user to a course
type Enrollment struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user"`
	UserUsername string    `json:"user_username"`
	CourseID     int64     `json:"course"`
	CourseTitle  string    `json:"course_title"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

type EnrollmentRequest struct {
	UserID   *int64 `json:"user"`
	CourseID *int64 `json:"course"`
}

// EnrollmentScope restricts enrollment queries. At most one field is set.
type EnrollmentScope struct {
	UserID             *int64
	CourseInstructorID *int64
}
