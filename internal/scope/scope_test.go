package scope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, Personal().Equal(Personal()))
	assert.True(t, Personal().Equal(Scope{}))
	assert.True(t, Family(42).Equal(Family(42)))
	assert.False(t, Family(42).Equal(Family(7)))
	assert.False(t, Family(42).Equal(Personal()))
	assert.False(t, Personal().Equal(Family(42)))
	// A stray id on a personal scope does not matter.
	assert.True(t, Scope{Kind: KindPersonal, FamilyID: 9}.Equal(Personal()))
}

func TestFamilyIDTolerantDecode(t *testing.T) {
	t.Parallel()

	var payload struct {
		A FamilyID `json:"a"`
		B FamilyID `json:"b"`
		C FamilyID `json:"c"`
		D FamilyID `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "42", "c": null, "d": ""}`), &payload))

	assert.Equal(t, FamilyID(42), payload.A)
	assert.Equal(t, payload.A, payload.B)
	assert.Zero(t, payload.C)
	assert.Zero(t, payload.D)
	assert.True(t, Family(payload.A).Equal(Family(payload.B)))
}

func TestFamilyIDDecodeErrors(t *testing.T) {
	t.Parallel()

	var id FamilyID
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &id))
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &id))
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
}

func TestFamilyIDEncodesAsNumber(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(struct {
		ID FamilyID `json:"id"`
	}{ID: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 5}`, string(data))
}

func TestParseFamilyID(t *testing.T) {
	t.Parallel()

	id, err := ParseFamilyID(" 17 ")
	require.NoError(t, err)
	assert.Equal(t, FamilyID(17), id)

	_, err = ParseFamilyID("seventeen")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Personal().Validate())
	assert.NoError(t, Family(1).Validate())
	assert.ErrorIs(t, Family(0).Validate(), ErrMissingFamily)
	assert.Error(t, Scope{Kind: "team"}.Validate())
}

func TestModel(t *testing.T) {
	t.Parallel()

	m := NewModel()
	assert.True(t, m.IsActive(Personal()))

	m.Set(Family(42))
	assert.Equal(t, Family(42), m.Current())
	assert.True(t, m.IsActive(Family(42)))
	assert.False(t, m.IsActive(Family(43)))
	assert.False(t, m.IsActive(Personal()))
}

func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "personal", Personal().String())
	assert.Equal(t, "family(42)", Family(42).String())
}
