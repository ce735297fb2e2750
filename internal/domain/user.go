package domain

import (
	"strings"
	"time"
)

// Role enumerates the fixed set of actor roles.
type Role string

const (
	RoleReporter Role = "REPORTER"
	RoleEngineer Role = "ENGINEER"
	RoleManager  Role = "MANAGER"
)

// Roles lists every recognized role.
var Roles = []Role{RoleReporter, RoleEngineer, RoleManager}

// ParseRole validates a raw role value. Matching ignores case and surrounding spaces.
func ParseRole(raw string) (Role, bool) {
	candidate := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch candidate {
	case RoleReporter, RoleEngineer, RoleManager:
		return candidate, true
	}
	return "", false
}

// RoleOrDefault accepts only an exact role name and falls back to REPORTER for
// anything else, "manager" included. Used only at registration.
func RoleOrDefault(raw string) Role {
	switch role := Role(raw); role {
	case RoleReporter, RoleEngineer, RoleManager:
		return role
	}
	return RoleReporter
}

// User is the identity record for every actor.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	PushToken    *string
	CreatedAt    time.Time
}

// HasPushToken reports whether the user registered a device for notifications.
func (u *User) HasPushToken() bool {
	return u != nil && u.PushToken != nil && strings.TrimSpace(*u.PushToken) != ""
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
