// Package service defines the backend-agnostic interface for calendar operations.
package service

import (
	"context"
	"errors"

	"famcal/internal/scope"
)

// Errors a backend reports through Service. Implementations wrap them so
// callers can classify failures with errors.Is.
var (
	ErrUnauthorized = errors.New("not authorized (run: famcal login)")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrTimeout      = errors.New("request timed out")
)

// TaskQuery selects the tasks of one scope within an inclusive date range.
type TaskQuery struct {
	Scope scope.Scope
	Start string // YYYY-MM-DD
	End   string // YYYY-MM-DD
}

// Service defines the interface for calendar backend operations.
// All remote API calls go through this interface.
// Commands and the engine never speak HTTP directly.
type Service interface {
	// Me returns the authenticated user.
	Me(ctx context.Context) (User, error)

	// ListTasks returns the tasks of a scope inside the query window.
	ListTasks(ctx context.Context, q TaskQuery) ([]Task, error)

	// CreateTask creates a task and returns it with its server-assigned id.
	CreateTask(ctx context.Context, p TaskPayload) (Task, error)

	// MoveTask persists a new date for a task.
	MoveTask(ctx context.Context, id int64, date string) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id int64) error

	// ListGroups returns the groups the user belongs to, in API order.
	ListGroups(ctx context.Context) ([]Group, error)

	// CreateGroup creates a group owned by the user.
	CreateGroup(ctx context.Context, name string) (Group, error)

	// JoinGroup joins a group by invite code.
	JoinGroup(ctx context.Context, inviteCode string) error

	// LeaveGroup removes the user from a group.
	LeaveGroup(ctx context.Context, id scope.FamilyID) error

	// ListMembers returns a group's members.
	ListMembers(ctx context.Context, id scope.FamilyID) ([]Member, error)

	// BlockMember hides the group's tasks from a member.
	BlockMember(ctx context.Context, id scope.FamilyID, userID int64) error

	// UnblockMember reverses BlockMember.
	UnblockMember(ctx context.Context, id scope.FamilyID, userID int64) error

	// RemoveMember removes a member from a group.
	RemoveMember(ctx context.Context, id scope.FamilyID, userID int64) error
}
