package auth

// Package auth contains domain-level types for sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Session is the server-side record persisted for an authenticated student.
// ID is an opaque session identifier (random URL-safe string); sessions are
// minted by the surrounding auth service, this backend only resolves them.
type Session struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin returns true if the session role is admin.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// Expired reports whether the session has passed its expiry.
func (s Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }
