package models

import "gorm.io/gorm"

// Message is immutable once sent except for the read flag. Sender and receiver
// names are snapshots taken at send time.
type Message struct {
	gorm.Model
	ChatID       uint   `json:"chatID" gorm:"not null;index"`
	SenderID     uint   `json:"senderID" gorm:"not null"`
	ReceiverID   uint   `json:"receiverID" gorm:"not null;index"`
	SenderName   string `json:"senderName"`
	ReceiverName string `json:"receiverName"`
	Content      string `json:"content"`
	Read         bool   `json:"read"`
}
