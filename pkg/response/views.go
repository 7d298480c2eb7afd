package response

import (
	"time"

	"messagely/internal/model"
)

// UserSummary is the public profile embedded in lists and messages.
type UserSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// UserDetail adds the account timestamps. There is no password field.
type UserDetail struct {
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	JoinedAt    time.Time  `json:"joined_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// MessageDetail is GET /messages/:id.
type MessageDetail struct {
	ID       string      `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserSummary `json:"from_user"`
	ToUser   UserSummary `json:"to_user"`
}

// SentMessage is one entry of a user's outbox.
type SentMessage struct {
	ID     string      `json:"id"`
	ToUser UserSummary `json:"to_user"`
	Body   string      `json:"body"`
	SentAt time.Time   `json:"sent_at"`
	ReadAt *time.Time  `json:"read_at"`
}

// ReceivedMessage is one entry of a user's inbox.
type ReceivedMessage struct {
	ID       string      `json:"id"`
	FromUser UserSummary `json:"from_user"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
}

// CreatedMessage is returned by POST /messages.
type CreatedMessage struct {
	ID           string     `json:"id"`
	FromUsername string     `json:"from_username"`
	ToUsername   string     `json:"to_username"`
	Body         string     `json:"body"`
	SentAt       time.Time  `json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`
}

// ReadReceipt is returned by POST /messages/:id/read.
type ReadReceipt struct {
	ID     string     `json:"id"`
	ReadAt *time.Time `json:"read_at"`
}

func FilterUserSummary(u *model.User) UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

func FilterUserSummaries(users []*model.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, FilterUserSummary(u))
	}
	return out
}

func FilterUserDetail(u *model.User) *UserDetail {
	if u == nil {
		return nil
	}
	return &UserDetail{
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		JoinedAt:    u.JoinedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

func FilterMessageDetail(m *model.Message) *MessageDetail {
	if m == nil {
		return nil
	}
	return &MessageDetail{
		ID:       m.ID,
		Body:     m.Body,
		SentAt:   m.SentAt,
		ReadAt:   m.ReadAt,
		FromUser: FilterUserSummary(&m.FromUser),
		ToUser:   FilterUserSummary(&m.ToUser),
	}
}

func FilterSentMessages(messages []*model.Message) []SentMessage {
	out := make([]SentMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, SentMessage{
			ID:     m.ID,
			ToUser: FilterUserSummary(&m.ToUser),
			Body:   m.Body,
			SentAt: m.SentAt,
			ReadAt: m.ReadAt,
		})
	}
	return out
}

func FilterReceivedMessages(messages []*model.Message) []ReceivedMessage {
	out := make([]ReceivedMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, ReceivedMessage{
			ID:       m.ID,
			FromUser: FilterUserSummary(&m.FromUser),
			Body:     m.Body,
			SentAt:   m.SentAt,
			ReadAt:   m.ReadAt,
		})
	}
	return out
}

func FilterCreatedMessage(m *model.Message) *CreatedMessage {
	if m == nil {
		return nil
	}
	return &CreatedMessage{
		ID:           m.ID,
		FromUsername: m.FromUsername,
		ToUsername:   m.ToUsername,
		Body:         m.Body,
		SentAt:       m.SentAt,
		ReadAt:       m.ReadAt,
	}
}

func FilterReadReceipt(m *model.Message) *ReadReceipt {
	if m == nil {
		return nil
	}
	return &ReadReceipt{ID: m.ID, ReadAt: m.ReadAt}
}
