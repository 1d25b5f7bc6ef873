// Package scope models the visibility partition tasks are fetched and
// created under: the user's personal tasks or one shared group.
package scope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the scope discriminator as sent on the wire.
type Kind string

const (
	KindPersonal Kind = "personal"
	KindFamily   Kind = "family"
)

// ErrMissingFamily is returned when a family scope has no group id.
var ErrMissingFamily = errors.New("group scope requires a group id")

// FamilyID identifies a shared group. It decodes from a JSON number or a
// numeric string, since both representations show up for the same group.
type FamilyID int64

// ParseFamilyID parses a decimal group id, ignoring surrounding space.
func ParseFamilyID(s string) (FamilyID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid group id: %s", s)
	}
	return FamilyID(n), nil
}

// String returns the decimal form.
func (id FamilyID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// UnmarshalJSON accepts 42, "42" and null.
func (id *FamilyID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		parsed, err := ParseFamilyID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid group id: %s", data)
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("invalid group id: %s", data)
	}
	*id = FamilyID(v)
	return nil
}

// Scope is either personal or a specific family group.
type Scope struct {
	Kind     Kind
	FamilyID FamilyID // zero unless Kind is KindFamily
}

// Personal returns the personal scope.
func Personal() Scope {
	return Scope{Kind: KindPersonal}
}

// Family returns the scope of group id.
func Family(id FamilyID) Scope {
	return Scope{Kind: KindFamily, FamilyID: id}
}

// IsPersonal reports whether s is the personal scope. The zero Scope counts
// as personal.
func (s Scope) IsPersonal() bool {
	return s.Kind == KindPersonal || s.Kind == ""
}

// Equal reports whether both scopes name the same partition. Family ids only
// matter for family scopes.
func (s Scope) Equal(other Scope) bool {
	if s.IsPersonal() || other.IsPersonal() {
		return s.IsPersonal() && other.IsPersonal()
	}
	return s.Kind == other.Kind && s.FamilyID == other.FamilyID
}

// Validate checks that a family scope carries a group id.
func (s Scope) Validate() error {
	switch {
	case s.IsPersonal():
		return nil
	case s.Kind == KindFamily:
		if s.FamilyID <= 0 {
			return ErrMissingFamily
		}
		return nil
	default:
		return fmt.Errorf("unknown scope: %s", s.Kind)
	}
}

func (s Scope) String() string {
	if s.IsPersonal() {
		return string(KindPersonal)
	}
	return fmt.Sprintf("%s(%d)", s.Kind, s.FamilyID)
}

// Model holds the active scope. It has no side effects; whoever calls Set is
// responsible for refetching.
type Model struct {
	current Scope
}

// NewModel returns a model starting in the personal scope.
func NewModel() *Model {
	return &Model{current: Personal()}
}

// Current returns the active scope.
func (m *Model) Current() Scope { return m.current }

// Set replaces the active scope.
func (m *Model) Set(s Scope) { m.current = s }

// IsActive reports whether candidate is the active scope.
func (m *Model) IsActive(candidate Scope) bool {
	return m.current.Equal(candidate)
}
