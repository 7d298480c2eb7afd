package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"messagely/internal/model"
	"messagely/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository is the message store.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// userSummary limits preloaded users to their public profile columns.
func userSummary(db *gorm.DB) *gorm.DB {
	return db.Select("username", "first_name", "last_name", "phone")
}

// Create inserts message. The foreign keys on from/to reject unknown users.
func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(message).Error
	if err != nil {
		if isForeignKeyViolation(err) {
			return errs.Wrap(errs.CodeNotFound, "user not found", err)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID loads a message with both user summaries.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*model.Message, error) {
	var message model.Message
	err := r.db.WithContext(ctx).
		Preload("FromUser", userSummary).
		Preload("ToUser", userSummary).
		Where("id = ?", id).
		Take(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.MessageNotFound(id)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &message, nil
}

// Participants loads only the sender/recipient pair.
func (r *MessageRepository) Participants(ctx context.Context, id string) (model.Participants, error) {
	var message model.Message
	err := r.db.WithContext(ctx).
		Select("from_username", "to_username").
		Where("id = ?", id).
		Take(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Participants{}, errs.MessageNotFound(id)
		}
		return model.Participants{}, fmt.Errorf("db error: %w", err)
	}
	return message.Participants(), nil
}

// MarkRead sets read_at if it is still null and returns the stored id and
// read_at. Later calls leave the first timestamp in place.
func (r *MessageRepository) MarkRead(ctx context.Context, id string, at time.Time) (*model.Message, error) {
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at).Error
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var message model.Message
	err = r.db.WithContext(ctx).
		Select("id", "read_at").
		Where("id = ?", id).
		Take(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.MessageNotFound(id)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &message, nil
}

// ListFrom returns messages sent by username with recipient summaries,
// oldest first.
func (r *MessageRepository) ListFrom(ctx context.Context, username string) ([]*model.Message, error) {
	messages := make([]*model.Message, 0)
	err := r.db.WithContext(ctx).
		Preload("ToUser", userSummary).
		Where("from_username = ?", username).
		Order("sent_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return messages, nil
}

// ListTo returns messages received by username with sender summaries,
// oldest first.
func (r *MessageRepository) ListTo(ctx context.Context, username string) ([]*model.Message, error) {
	messages := make([]*model.Message, 0)
	err := r.db.WithContext(ctx).
		Preload("FromUser", userSummary).
		Where("to_username = ?", username).
		Order("sent_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return messages, nil
}
