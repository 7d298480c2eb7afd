package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"messagely/internal/model"
	"messagely/pkg/errs"

	"gorm.io/gorm"
)

// UserRepository is the credential store.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user. A taken username yields errs.ErrDuplicateUser.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if isDuplicateKey(err) {
			return errs.Wrap(errs.CodeConflict, "username already taken", err)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.UserNotFound(username)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &u, nil
}

// UpdateLastLogin stamps last_login_at.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ?", username).
		Update("last_login_at", at)
	if res.Error != nil {
		return fmt.Errorf("db error: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL counts changed rows, not matched ones
		ok, err := r.Exists(ctx, username)
		if err != nil {
			return err
		}
		if !ok {
			return errs.UserNotFound(username)
		}
	}
	return nil
}

// List returns every user ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	users := make([]*model.User, 0)
	err := r.db.WithContext(ctx).
		Select("username", "first_name", "last_name", "phone").
		Order("username ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return count > 0, nil
}
