package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, "3:7", ChatPairKey(3, 7))
	assert.Equal(t, "3:7", ChatPairKey(7, 3))
	assert.Equal(t, "5:5", ChatPairKey(5, 5))
}

func TestChatMarshalExposesUnreadCountMap(t *testing.T) {
	raw, err := json.Marshal(&Chat{
		Participants:     []byte(`[1,2]`),
		ParticipantNames: []byte(`["Ana","Ben"]`),
		LastMessage:      "hello",
		Unreads: []ChatUnread{
			{UserID: 1, Count: 0},
			{UserID: 2, Count: 3},
		},
	})
	require.NoError(t, err)

	var out struct {
		Participants []uint         `json:"participants"`
		UnreadCount  map[string]int `json:"unreadCount"`
		LastMessage  string         `json:"lastMessage"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, []uint{1, 2}, out.Participants)
	assert.Equal(t, map[string]int{"1": 0, "2": 3}, out.UnreadCount)
	assert.Equal(t, "hello", out.LastMessage)
}
