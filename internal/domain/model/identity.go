package model

import "strings"

// Role is the authenticated caller's role.
type Role string

// Known roles.
const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleMaster  Role = "master"
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleTeacher, RoleStudent, RoleMaster:
		return r, true
	default:
		return "", false
	}
}

// Identity is who a request acts as.
type Identity struct {
	Role   Role   `json:"role"`
	UserID string `json:"user_id"`
}

// User is an account from the users file.
type User struct {
	Role         Role
	UserID       string
	DisplayName  string
	PasswordHash []byte
}
