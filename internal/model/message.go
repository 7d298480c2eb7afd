package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Message is a direct message between two users.
// Sender, recipient, body and SentAt are fixed at creation. ReadAt is nil
// until the recipient marks it read and is never changed afterwards.
type Message struct {
	ID           string     `gorm:"type:char(26);primaryKey"`
	FromUsername string     `gorm:"type:varchar(64);not null;index"`
	ToUsername   string     `gorm:"type:varchar(64);not null;index"`
	Body         string     `gorm:"type:text;not null"`
	SentAt       time.Time  `gorm:"precision:6;not null;index"`
	ReadAt       *time.Time `gorm:"precision:6"`

	FromUser User `gorm:"foreignKey:FromUsername;references:Username;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	ToUser   User `gorm:"foreignKey:ToUsername;references:Username;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
}

func (Message) TableName() string { return "message" }

// NewMessageID returns a fresh lexically sortable id.
func NewMessageID() string {
	return ulid.Make().String()
}

// Participants returns the sender/recipient pair of m.
func (m *Message) Participants() Participants {
	return Participants{From: m.FromUsername, To: m.ToUsername}
}

// Participants is the immutable (sender, recipient) pair of a message, all
// that message-scoped authorization needs to know.
type Participants struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Includes reports whether username is the sender or the recipient.
func (p Participants) Includes(username string) bool {
	return username == p.From || username == p.To
}

// IsRecipient reports whether username is the recipient.
func (p Participants) IsRecipient(username string) bool {
	return username == p.To
}
