// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sort"
	"sync"

	"famcal/internal/scope"
	"famcal/internal/service"
)

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = service.ErrNotFound

// ErrForbidden is returned for actions on groups the user is not in.
var ErrForbidden = service.ErrForbidden

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu      sync.RWMutex
	tasks   []service.Task
	groups  []service.Group
	members map[scope.FamilyID][]service.Member
	joined  map[scope.FamilyID]bool
	nextID  int64
	me      service.User

	// Queries records every ListTasks call in order.
	Queries []service.TaskQuery
	// Calls records every method call by name.
	Calls []string

	// Error injection for testing
	MeErr           error
	ListTasksErr    error
	CreateTaskErr   error
	MoveTaskErr     error
	DeleteTaskErr   error
	ListGroupsErr   error
	CreateGroupErr  error
	JoinGroupErr    error
	LeaveGroupErr   error
	ListMembersErr  error
	MemberActionErr error

	// OnMoveTask, when set, runs before a move is stored. A non-nil return
	// fails the call.
	OnMoveTask func(ctx context.Context, id int64, date string) error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		members: make(map[scope.FamilyID][]service.Member),
		joined:  make(map[scope.FamilyID]bool),
		nextID:  1000,
		me:      service.User{ID: 1, FirstName: "Test", Username: "tester"},
	}
}

// SetMe sets the user returned by Me.
func (f *FakeService) SetMe(u service.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.me = u
}

// AddTask stores a task as if the server had it.
func (f *FakeService) AddTask(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.Scope == "" {
		t.Scope = scope.KindPersonal
	}
	f.tasks = append(f.tasks, t)
}

// AddGroup adds a group the user belongs to.
func (f *FakeService) AddGroup(g service.Group, members ...service.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append(f.groups, g)
	f.joined[g.ID] = true
	f.members[g.ID] = append(f.members[g.ID], members...)
}

// AddJoinableGroup adds a group the user can join with its invite code.
func (f *FakeService) AddJoinableGroup(g service.Group) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append(f.groups, g)
}

// Task returns the stored task with id.
func (f *FakeService) Task(id int64) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Members returns the stored members of a group.
func (f *FakeService) Members(id scope.FamilyID) []service.Member {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Member(nil), f.members[id]...)
}

func (f *FakeService) record(name string) {
	f.Calls = append(f.Calls, name)
}

// Me implements service.Service.
func (f *FakeService) Me(ctx context.Context) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Me")
	if f.MeErr != nil {
		return service.User{}, f.MeErr
	}
	return f.me, nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, q service.TaskQuery) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListTasks")
	f.Queries = append(f.Queries, q)
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}

	var out []service.Task
	for _, t := range f.tasks {
		if t.Date < q.Start || t.Date > q.End {
			continue
		}
		if q.Scope.IsPersonal() {
			if t.Scope == scope.KindPersonal {
				out = append(out, t)
			}
			continue
		}
		if t.Scope == scope.KindFamily && t.FamilyID == q.Scope.FamilyID {
			out = append(out, t)
		}
	}
	// Same order as the real API: date, then start time with untimed last.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		a, b := out[i].StartTime, out[j].StartTime
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a < b
	})
	return out, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, p service.TaskPayload) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}

	f.nextID++
	t := service.Task{
		ID:                f.nextID,
		Title:             p.Title,
		Date:              p.Date,
		Scope:             p.Scope,
		Color:             p.Color,
		Tags:              p.Tags,
		NotifyBeforeDays:  p.NotifyBeforeDays,
		NotifyBeforeHours: p.NotifyBeforeHours,
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.StartTime != nil {
		t.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		t.EndTime = *p.EndTime
	}
	if p.FamilyID != nil {
		t.FamilyID = *p.FamilyID
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// MoveTask implements service.Service.
func (f *FakeService) MoveTask(ctx context.Context, id int64, date string) (service.Task, error) {
	f.mu.Lock()
	f.record("MoveTask")
	hook := f.OnMoveTask
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, id, date); err != nil {
			return service.Task{}, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MoveTaskErr != nil {
		return service.Task{}, f.MoveTaskErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i].Date = date
			return f.tasks[i], nil
		}
	}
	return service.Task{}, ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ListGroups implements service.Service.
func (f *FakeService) ListGroups(ctx context.Context) ([]service.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListGroups")
	if f.ListGroupsErr != nil {
		return nil, f.ListGroupsErr
	}
	var out []service.Group
	for _, g := range f.groups {
		if f.joined[g.ID] {
			out = append(out, g)
		}
	}
	return out, nil
}

// CreateGroup implements service.Service.
func (f *FakeService) CreateGroup(ctx context.Context, name string) (service.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateGroup")
	if f.CreateGroupErr != nil {
		return service.Group{}, f.CreateGroupErr
	}
	f.nextID++
	g := service.Group{ID: scope.FamilyID(f.nextID), Name: name, InviteCode: "code" + scope.FamilyID(f.nextID).String()}
	f.groups = append(f.groups, g)
	f.joined[g.ID] = true
	f.members[g.ID] = []service.Member{{UserID: 1, Role: service.RoleOwner}}
	return g, nil
}

// JoinGroup implements service.Service.
func (f *FakeService) JoinGroup(ctx context.Context, inviteCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("JoinGroup")
	if f.JoinGroupErr != nil {
		return f.JoinGroupErr
	}
	for _, g := range f.groups {
		if g.InviteCode == inviteCode {
			f.joined[g.ID] = true
			return nil
		}
	}
	return ErrNotFound
}

// LeaveGroup implements service.Service.
func (f *FakeService) LeaveGroup(ctx context.Context, id scope.FamilyID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LeaveGroup")
	if f.LeaveGroupErr != nil {
		return f.LeaveGroupErr
	}
	if !f.joined[id] {
		return ErrNotFound
	}
	delete(f.joined, id)
	return nil
}

// ListMembers implements service.Service.
func (f *FakeService) ListMembers(ctx context.Context, id scope.FamilyID) ([]service.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListMembers")
	if f.ListMembersErr != nil {
		return nil, f.ListMembersErr
	}
	if !f.joined[id] {
		return nil, ErrForbidden
	}
	return append([]service.Member(nil), f.members[id]...), nil
}

// BlockMember implements service.Service.
func (f *FakeService) BlockMember(ctx context.Context, id scope.FamilyID, userID int64) error {
	return f.updateMember(id, userID, "BlockMember", func(m *service.Member) { m.Blocked = true })
}

// UnblockMember implements service.Service.
func (f *FakeService) UnblockMember(ctx context.Context, id scope.FamilyID, userID int64) error {
	return f.updateMember(id, userID, "UnblockMember", func(m *service.Member) { m.Blocked = false })
}

// RemoveMember implements service.Service.
func (f *FakeService) RemoveMember(ctx context.Context, id scope.FamilyID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveMember")
	if f.MemberActionErr != nil {
		return f.MemberActionErr
	}
	members := f.members[id]
	for i, m := range members {
		if m.UserID == userID {
			f.members[id] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *FakeService) updateMember(id scope.FamilyID, userID int64, name string, fn func(*service.Member)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(name)
	if f.MemberActionErr != nil {
		return f.MemberActionErr
	}
	for i := range f.members[id] {
		if f.members[id][i].UserID == userID {
			fn(&f.members[id][i])
			return nil
		}
	}
	return ErrNotFound
}
