package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"famcal/internal/scope"
	"famcal/internal/service"
)

const (
	minGroupName = 2
	maxGroupName = 100

	invitePrefix = "invite_"
)

var (
	// ErrGroupNotFound is returned when no loaded group matches a reference.
	ErrGroupNotFound = errors.New("group not found")

	// ErrGroupAmbiguous is returned when several groups share a name.
	ErrGroupAmbiguous = errors.New("ambiguous group name")
)

// LoadGroups fetches the user's groups.
func (e *Engine) LoadGroups(ctx context.Context) ([]service.Group, error) {
	groups, err := e.svc.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}

	e.mu.Lock()
	e.groups = groups
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	return snap.Groups, nil
}

// Groups returns the groups from the last LoadGroups.
func (e *Engine) Groups() []service.Group {
	return e.Snapshot().Groups
}

// ResolveGroup finds a loaded group by numeric id or by name
// (case-insensitive, trimmed).
func (e *Engine) ResolveGroup(ref string) (service.Group, error) {
	ref = strings.TrimSpace(ref)
	groups := e.Groups()

	if id, err := scope.ParseFamilyID(ref); err == nil {
		for _, g := range groups {
			if g.ID == id {
				return g, nil
			}
		}
	}

	var matches []service.Group
	for _, g := range groups {
		if strings.EqualFold(strings.TrimSpace(g.Name), ref) {
			matches = append(matches, g)
		}
	}
	switch len(matches) {
	case 0:
		return service.Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return service.Group{}, fmt.Errorf("%w: %s", ErrGroupAmbiguous, ref)
	}
}

// CreateGroup creates a group and reloads the group list.
func (e *Engine) CreateGroup(ctx context.Context, name string) (service.Group, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minGroupName || n > maxGroupName {
		return service.Group{}, &ValidationError{
			Field: "group name",
			Err:   fmt.Errorf("must be %d to %d characters", minGroupName, maxGroupName),
		}
	}
	g, err := e.svc.CreateGroup(ctx, name)
	if err != nil {
		return service.Group{}, fmt.Errorf("create group: %w", err)
	}
	_, err = e.LoadGroups(ctx)
	return g, err
}

// Join joins a group by invite code, start parameter or invite link, then
// reloads the group list. The active scope does not change.
func (e *Engine) Join(ctx context.Context, invite string) error {
	code, ok := ParseInvite(invite)
	if !ok {
		return &ValidationError{Field: "invite code", Err: fmt.Errorf("not an invite: %q", invite)}
	}
	if err := e.svc.JoinGroup(ctx, code); err != nil {
		return fmt.Errorf("join group: %w", err)
	}
	_, err := e.LoadGroups(ctx)
	return err
}

// Leave leaves a group. If that group is the active scope, the scope falls
// back to personal before the group list and tasks are refetched.
func (e *Engine) Leave(ctx context.Context, id scope.FamilyID) error {
	if err := e.svc.LeaveGroup(ctx, id); err != nil {
		return fmt.Errorf("leave group: %w", err)
	}

	e.mu.Lock()
	reset := e.scope.IsActive(scope.Family(id))
	if reset {
		e.scope.Set(scope.Personal())
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if reset {
		e.log.Debug("scope reset to personal", "left", id)
		e.notify(snap)
	}

	if _, err := e.LoadGroups(ctx); err != nil {
		return err
	}
	return e.Refresh(ctx)
}

// Members fetches a group's members.
func (e *Engine) Members(ctx context.Context, id scope.FamilyID) ([]service.Member, error) {
	members, err := e.svc.ListMembers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	return members, nil
}

// Block blocks a member and returns the refreshed member list.
func (e *Engine) Block(ctx context.Context, id scope.FamilyID, userID int64) ([]service.Member, error) {
	if err := e.svc.BlockMember(ctx, id, userID); err != nil {
		return nil, fmt.Errorf("block member: %w", err)
	}
	return e.Members(ctx, id)
}

// Unblock unblocks a member and returns the refreshed member list.
func (e *Engine) Unblock(ctx context.Context, id scope.FamilyID, userID int64) ([]service.Member, error) {
	if err := e.svc.UnblockMember(ctx, id, userID); err != nil {
		return nil, fmt.Errorf("unblock member: %w", err)
	}
	return e.Members(ctx, id)
}

// RemoveMember removes a member and returns the refreshed member list.
func (e *Engine) RemoveMember(ctx context.Context, id scope.FamilyID, userID int64) ([]service.Member, error) {
	if err := e.svc.RemoveMember(ctx, id, userID); err != nil {
		return nil, fmt.Errorf("remove member: %w", err)
	}
	return e.Members(ctx, id)
}

// CanManage reports whether userID owns the group the members belong to.
// It only decides which controls to offer; the backend enforces permissions.
func CanManage(members []service.Member, userID int64) bool {
	for _, m := range members {
		if m.UserID == userID {
			return m.IsOwner()
		}
	}
	return false
}

// ParseInvite extracts the invite code from a bare code, a start parameter
// ("invite_<code>[_...]") or a deep link carrying startapp=invite_<code>.
func ParseInvite(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", false
		}
		s = u.Query().Get("startapp")
		if !strings.HasPrefix(s, invitePrefix) {
			return "", false
		}
	}
	if rest, ok := strings.CutPrefix(s, invitePrefix); ok {
		// The code is the segment after "invite_"; anything past a further
		// underscore is ignored.
		s, _, _ = strings.Cut(rest, "_")
	}
	if s == "" || strings.ContainsAny(s, " \t/?&=") {
		return "", false
	}
	return s, true
}

// InviteLink builds the mini-app deep link that joins a group.
func InviteLink(bot, app, code string) string {
	return fmt.Sprintf("https://t.me/%s/%s?startapp=%s%s", bot, app, invitePrefix, code)
}

// ShareURL wraps an invite link in a share dialog URL.
func ShareURL(link, groupName string) string {
	text := fmt.Sprintf("Join my calendar %q!", groupName)
	return "https://t.me/share/url?url=" + url.QueryEscape(link) + "&text=" + url.QueryEscape(text)
}

// FilterMembers keeps members whose first name, last name or username
// contains q, ignoring case. An empty q keeps everyone.
func FilterMembers(members []service.Member, q string) []service.Member {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return members
	}
	var out []service.Member
	for _, m := range members {
		hay := strings.ToLower(m.FirstName + " " + m.LastName + " " + m.Username)
		if strings.Contains(hay, q) {
			out = append(out, m)
		}
	}
	return out
}
