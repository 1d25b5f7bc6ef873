// Package service defines the backend-agnostic interface for calendar operations.
package service

import (
	"fmt"
	"strings"

	"famcal/internal/scope"
)

// DefaultColor is the task color used when none or an invalid one is given.
const DefaultColor = "#4c6fff"

// Task is a schedulable item. Date is the canonical YYYY-MM-DD key; times are
// HH:MM or HH:MM:SS and empty when unset.
type Task struct {
	ID                int64          `json:"id"`
	Title             string         `json:"title"`
	Description       string         `json:"description,omitempty"`
	Date              string         `json:"date"`
	StartTime         string         `json:"start_time,omitempty"`
	EndTime           string         `json:"end_time,omitempty"`
	Scope             scope.Kind     `json:"scope"`
	FamilyID          scope.FamilyID `json:"family_id,omitempty"`
	Color             string         `json:"color,omitempty"`
	Tags              []string       `json:"tags,omitempty"`
	NotifyBeforeDays  *int           `json:"notify_before_days,omitempty"`
	NotifyBeforeHours *int           `json:"notify_before_hours,omitempty"`
}

// TaskPayload is the body of a task creation request.
type TaskPayload struct {
	Title             string          `json:"title"`
	Description       *string         `json:"description"`
	Date              string          `json:"date"`
	StartTime         *string         `json:"start_time"`
	EndTime           *string         `json:"end_time"`
	Scope             scope.Kind      `json:"scope"`
	FamilyID          *scope.FamilyID `json:"family_id"`
	Color             string          `json:"color"`
	Tags              []string        `json:"tags"`
	NotifyBeforeDays  *int            `json:"notify_before_days"`
	NotifyBeforeHours *int            `json:"notify_before_hours"`
}

// Role is a member's role within a group.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// User is an account as the API knows it.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayName returns "First Last", else the username, else the user id.
func (u User) DisplayName() string {
	return displayName(u.FirstName, u.LastName, u.Username, u.ID)
}

// Member is one user's membership in a group.
type Member struct {
	UserID    int64  `json:"user_id"`
	Role      Role   `json:"role"`
	Blocked   bool   `json:"blocked"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayName returns "First Last", else the username, else the user id.
func (m Member) DisplayName() string {
	return displayName(m.FirstName, m.LastName, m.Username, m.UserID)
}

func displayName(first, last, username string, id int64) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name != "" {
		return name
	}
	if username != "" {
		return username
	}
	return fmt.Sprintf("ID: %d", id)
}

// IsOwner reports whether the member owns the group. It only decides which
// controls are offered; the backend enforces permissions.
func (m Member) IsOwner() bool {
	return m.Role == RoleOwner
}

// Group is a shared ("family") calendar.
type Group struct {
	ID         scope.FamilyID `json:"id"`
	Name       string         `json:"name"`
	InviteCode string         `json:"invite_code"`
	Members    []Member       `json:"members,omitempty"`
}

// Scope returns the scope that shows this group's tasks.
func (g Group) Scope() scope.Scope {
	return scope.Family(g.ID)
}
