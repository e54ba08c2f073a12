// Package domain defines the core domain models for roster.
package domain

import (
	"strings"
)

// Student field limits.
const (
	MaxNameLength  = 128
	MaxGroupLength = 32
	MinAge         = 1
	MaxAge         = 150
)

// Student is one record of the student collection.
//
// ID is the aggregation key used by snapshot reports; the remaining
// fields are application data and are never interpreted by the
// snapshot subsystem.
type Student struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Group string `json:"group"`
}

// Validate checks the student fields.
func (s *Student) Validate() error {
	if s.ID <= 0 {
		return ErrStudentValidation.WithDetails("id must be positive")
	}
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return ErrStudentValidation.WithDetails("name is required")
	}
	if len(name) > MaxNameLength {
		return ErrStudentValidation.WithDetails("name too long")
	}
	if s.Age < MinAge || s.Age > MaxAge {
		return ErrStudentValidation.WithDetails("age out of range")
	}
	if len(s.Group) > MaxGroupLength {
		return ErrStudentValidation.WithDetails("group too long")
	}
	return nil
}

// Clone returns a copy of the student.
func (s *Student) Clone() *Student {
	c := *s
	return &c
}
