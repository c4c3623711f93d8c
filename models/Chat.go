package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Chat is a two-party conversation. PairKey is the canonical unordered
// participant key; its unique index is what resolves the concurrent
// find-or-create race (the loser reuses the winner's row).
type Chat struct {
	gorm.Model
	PairKey          string         `json:"-" gorm:"size:64;uniqueIndex"`
	Participants     datatypes.JSON `json:"participants"`
	ParticipantNames datatypes.JSON `json:"participantNames"`
	LastMessage      string         `json:"lastMessage"`
	LastMessageTime  *time.Time     `json:"lastMessageTime"`

	Unreads []ChatUnread `json:"-" gorm:"foreignKey:ChatID"`
}

// ChatUnread is the per-participant unread counter row. A dedicated row keeps
// the increment atomic at the store instead of a read-modify-write of the chat.
type ChatUnread struct {
	ID     uint `json:"-" gorm:"primarykey"`
	ChatID uint `json:"chatID" gorm:"not null;uniqueIndex:idx_chat_user"`
	UserID uint `json:"userID" gorm:"not null;uniqueIndex:idx_chat_user"`
	Count  int  `json:"count"`
}

// ChatPairKey canonicalizes an unordered participant pair.
func ChatPairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Custom JSON marshaling: participants as arrays and the unread counters as a
// userID -> count map, matching what chat clients expect.
func (c *Chat) MarshalJSON() ([]byte, error) {
	type Alias Chat
	aux := &struct {
		Participants     []uint         `json:"participants"`
		ParticipantNames []string       `json:"participantNames"`
		UnreadCount      map[string]int `json:"unreadCount"`
		*Alias
	}{
		Participants:     []uint{},
		ParticipantNames: []string{},
		UnreadCount:      map[string]int{},
		Alias:            (*Alias)(c),
	}

	if c.Participants != nil {
		var ids []uint
		if err := json.Unmarshal(c.Participants, &ids); err == nil {
			aux.Participants = ids
		}
	}
	if c.ParticipantNames != nil {
		var names []string
		if err := json.Unmarshal(c.ParticipantNames, &names); err == nil {
			aux.ParticipantNames = names
		}
	}
	for _, u := range c.Unreads {
		aux.UnreadCount[strconv.FormatUint(uint64(u.UserID), 10)] = u.Count
	}

	return json.Marshal(aux)
}
