package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"messagely/internal/model"
	"messagely/pkg/errs"
	"messagely/pkg/logger"

	"go.uber.org/zap"
)

// MessageStore is the persistence the message service needs.
type MessageStore interface {
	Create(ctx context.Context, message *model.Message) error
	GetByID(ctx context.Context, id string) (*model.Message, error)
	Participants(ctx context.Context, id string) (model.Participants, error)
	MarkRead(ctx context.Context, id string, at time.Time) (*model.Message, error)
	ListFrom(ctx context.Context, username string) ([]*model.Message, error)
	ListTo(ctx context.Context, username string) ([]*model.Message, error)
}

// UserLookup answers whether a username is registered.
type UserLookup interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// ParticipantCache is a read-through cache in front of
// MessageStore.Participants.
type ParticipantCache interface {
	GetParticipants(ctx context.Context, id string) (model.Participants, bool, error)
	SetParticipants(ctx context.Context, id string, p model.Participants) error
}

// Notifier pushes an encoded event to a user's live connection, if any.
type Notifier interface {
	SendToUser(username string, msg []byte) bool
}

// Event is the envelope pushed over the websocket.
type Event struct {
	Type    string      `json:"type"`
	Message interface{} `json:"message"`
}

const (
	EventMessage = "message"
	EventRead    = "read"
)

// NewMessageEvent is pushed to the recipient when a message is stored.
type NewMessageEvent struct {
	ID           string     `json:"id"`
	FromUsername string     `json:"from_username"`
	ToUsername   string     `json:"to_username"`
	Body         string     `json:"body"`
	SentAt       time.Time  `json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`
}

// ReadEvent is pushed to the sender when the recipient first reads a message.
type ReadEvent struct {
	ID     string     `json:"id"`
	ReadAt *time.Time `json:"read_at"`
}

type MessageService struct {
	messages MessageStore
	users    UserLookup
	cache    ParticipantCache
	notifier Notifier
	now      func() time.Time
}

func NewMessageService(messages MessageStore, users UserLookup) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		now:      clock,
	}
}

// WithCache enables the participant cache.
func (s *MessageService) WithCache(cache ParticipantCache) *MessageService {
	s.cache = cache
	return s
}

// WithNotifier enables live pushes.
func (s *MessageService) WithNotifier(n Notifier) *MessageService {
	s.notifier = n
	return s
}

// Create stores a message from the verified sender to toUsername. The body
// is stored exactly as sent; a blank one is rejected.
func (s *MessageService) Create(ctx context.Context, fromUsername, toUsername, body string) (*model.Message, error) {
	if strings.TrimSpace(toUsername) == "" {
		return nil, errs.InvalidInput("to_username is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, errs.InvalidInput("body must not be empty")
	}

	ok, err := s.users.Exists(ctx, toUsername)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.UserNotFound(toUsername)
	}

	message := &model.Message{
		ID:           model.NewMessageID(),
		FromUsername: fromUsername,
		ToUsername:   toUsername,
		Body:         body,
		SentAt:       s.now(),
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	s.cacheParticipants(ctx, message.ID, message.Participants())
	s.push(message.ToUsername, EventMessage, NewMessageEvent{
		ID:           message.ID,
		FromUsername: message.FromUsername,
		ToUsername:   message.ToUsername,
		Body:         message.Body,
		SentAt:       message.SentAt,
		ReadAt:       message.ReadAt,
	})
	return message, nil
}

// Get returns the message with both user summaries.
func (s *MessageService) Get(ctx context.Context, id string) (*model.Message, error) {
	return s.messages.GetByID(ctx, id)
}

// MarkRead sets read_at on the first call and returns the stored value on
// every call. The sender is notified only when this call set it.
func (s *MessageService) MarkRead(ctx context.Context, id string) (*model.Message, error) {
	at := s.now()
	message, err := s.messages.MarkRead(ctx, id, at)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && message.ReadAt != nil && message.ReadAt.Equal(at) {
		if p, err := s.Participants(ctx, id); err == nil {
			s.push(p.From, EventRead, ReadEvent{ID: message.ID, ReadAt: message.ReadAt})
		}
	}
	return message, nil
}

// Participants returns the (from, to) pair of message id, reading through
// the cache when one is configured. Cache failures fall back to the store.
func (s *MessageService) Participants(ctx context.Context, id string) (model.Participants, error) {
	if s.cache != nil {
		p, ok, err := s.cache.GetParticipants(ctx, id)
		if err != nil {
			logger.Warn("participant cache read failed", zap.String("message_id", id), zap.Error(err))
		} else if ok {
			return p, nil
		}
	}

	p, err := s.messages.Participants(ctx, id)
	if err != nil {
		return model.Participants{}, err
	}
	s.cacheParticipants(ctx, id, p)
	return p, nil
}

// MessagesFrom returns the outbox of username, oldest first.
func (s *MessageService) MessagesFrom(ctx context.Context, username string) ([]*model.Message, error) {
	messages, err := s.messages.ListFrom(ctx, username)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*model.Message{}
	}
	return messages, nil
}

// MessagesTo returns the inbox of username, oldest first.
func (s *MessageService) MessagesTo(ctx context.Context, username string) ([]*model.Message, error) {
	messages, err := s.messages.ListTo(ctx, username)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*model.Message{}
	}
	return messages, nil
}

func (s *MessageService) cacheParticipants(ctx context.Context, id string, p model.Participants) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetParticipants(ctx, id, p); err != nil {
		logger.Warn("participant cache write failed", zap.String("message_id", id), zap.Error(err))
	}
}

func (s *MessageService) push(username, eventType string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	b, err := json.Marshal(Event{Type: eventType, Message: payload})
	if err != nil {
		logger.Error("encode push event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if !s.notifier.SendToUser(username, b) {
		logger.Debug("push skipped, user offline", zap.String("username", username), zap.String("type", eventType))
	}
}
