package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMarshalSkillsAsArray(t *testing.T) {
	var out struct {
		Skills []string `json:"skills"`
	}

	// No skills stored yet: clients still get an empty array, not null.
	raw, err := json.Marshal(&User{Name: "Vera", Email: "vera@example.test"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotNil(t, out.Skills)
	assert.Empty(t, out.Skills)

	raw, err = json.Marshal(&User{
		Name:   "Vera",
		Email:  "vera@example.test",
		Skills: []byte(`["first aid","logistics"]`),
	})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, []string{"first aid", "logistics"}, out.Skills)
}

func TestUserMarshalOmitsPassword(t *testing.T) {
	raw, err := json.Marshal(&User{Name: "Vera", Password: "hashed-secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hashed-secret")
}
