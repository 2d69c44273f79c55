package domain

import (
	"errors"
	"regexp"
	"time"
)

// Role is the access role of a registered user
type Role string

const (
	RoleUser  Role = "User"
	RoleIC    Role = "IC"
	RoleAdmin Role = "Admin"
)

// AccStatus is the approval state of an account
type AccStatus int

const (
	StatusRejected AccStatus = -1
	StatusPending  AccStatus = 0
	StatusApproved AccStatus = 1
)

var (
	// ErrUserExists is returned when a registration is inserted for a user id
	// that is already stored.
	ErrUserExists = errors.New("user already exists")
	// ErrNotPending is returned when an approval decision targets a user that
	// is no longer pending.
	ErrNotPending = errors.New("user is not pending approval")
)

var (
	nameRx       = regexp.MustCompile(`^[a-zA-Z ]{1,100}$`)
	titleRx      = regexp.MustCompile(`^[A-Z0-9]{3,4}$`)
	departmentRx = regexp.MustCompile(`^[a-zA-Z0-9 ]{2,5}$`)
)

// User represents a registered employee
type User struct {
	UserID     int64
	ChatID     int64
	Name       string
	Title      string
	Department string
	Role       Role
	AccStatus  AccStatus
	CreatedAt  time.Time
}

// Registration holds the fields collected by the registration dialog
type Registration struct {
	UserID     int64
	ChatID     int64
	Name       string
	Title      string
	Department string
}

// NewUser builds the pending user row stored for a registration
func (r Registration) NewUser() User {
	return User{
		UserID:     r.UserID,
		ChatID:     r.ChatID,
		Name:       r.Name,
		Title:      r.Title,
		Department: r.Department,
		Role:       RoleUser,
		AccStatus:  StatusPending,
	}
}

// ValidName reports whether name contains only letters and spaces (1-100 chars)
func ValidName(name string) bool {
	return nameRx.MatchString(name)
}

// ValidTitle reports whether title is a 3-4 char uppercase alphanumeric code.
// Callers uppercase the input first.
func ValidTitle(title string) bool {
	return titleRx.MatchString(title)
}

// ValidDepartment reports whether department is 2-5 alphanumeric or space chars
func ValidDepartment(department string) bool {
	return departmentRx.MatchString(department)
}
