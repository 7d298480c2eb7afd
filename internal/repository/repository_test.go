package repository

import (
	"context"
	"testing"
	"time"

	"messagely/internal/model"
	"messagely/pkg/db"
	"messagely/pkg/errs"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var userColumns = []string{"username", "password_hash", "first_name", "last_name", "phone", "joined_at", "last_login_at"}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	orm, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), db.GormConfig(false))
	require.NoError(t, err)
	return orm, mock
}

func TestUserRepository_Create(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewUserRepository(orm)

	mock.ExpectExec("INSERT INTO `user`").WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.User{
		Username:     "alice",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Alice",
		LastName:     "A",
		Phone:        "555",
		JoinedAt:     time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewUserRepository(orm)

	mock.ExpectExec("INSERT INTO `user`").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice' for key 'PRIMARY'"})

	err := repo.Create(context.Background(), &model.User{Username: "alice", JoinedAt: time.Now()})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrDuplicateUser)
	assert.Equal(t, errs.CodeConflict, errs.CodeOf(err))
}

func TestUserRepository_GetByUsername(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewUserRepository(orm)
	joined := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `user` WHERE username = \\?").
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("alice", "$2a$10$hash", "Alice", "A", "555", joined, nil))

	u, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Alice", u.FirstName)
	assert.Equal(t, joined, u.JoinedAt)
	assert.Nil(t, u.LastLoginAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUsername_NotFound(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewUserRepository(orm)

	mock.ExpectQuery("FROM `user` WHERE username = \\?").
		WillReturnRows(sqlmock.NewRows(userColumns))

	u, err := repo.GetByUsername(context.Background(), "ghost")
	assert.Nil(t, u)
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewUserRepository(orm)

	mock.ExpectExec("UPDATE `user` SET `last_login_at`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLastLogin(context.Background(), "alice", time.Now().UTC()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateLastLogin_UnknownUser(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewUserRepository(orm)

	mock.ExpectExec("UPDATE `user` SET `last_login_at`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `user`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))

	err := repo.UpdateLastLogin(context.Background(), "ghost", time.Now().UTC())
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewUserRepository(orm)

	mock.ExpectQuery("SELECT `username`,`first_name`,`last_name`,`phone` FROM `user` ORDER BY username ASC").
		WillReturnRows(sqlmock.NewRows([]string{"username", "first_name", "last_name", "phone"}).
			AddRow("alice", "Alice", "A", "555").
			AddRow("bob", "Bob", "B", "556"))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Empty(t, users[0].PasswordHash)
}

func TestUserRepository_List_Empty(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewUserRepository(orm)

	mock.ExpectQuery("FROM `user`").
		WillReturnRows(sqlmock.NewRows([]string{"username", "first_name", "last_name", "phone"}))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestMessageRepository_Create(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewMessageRepository(orm)

	mock.ExpectExec("INSERT INTO `message`").WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.Message{
		ID:           model.NewMessageID(),
		FromUsername: "alice",
		ToUsername:   "bob",
		Body:         "hi",
		SentAt:       time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_Create_UnknownRecipient(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewMessageRepository(orm)

	mock.ExpectExec("INSERT INTO `message`").
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

	err := repo.Create(context.Background(), &model.Message{
		ID:           model.NewMessageID(),
		FromUsername: "alice",
		ToUsername:   "ghost",
		Body:         "hi",
		SentAt:       time.Now().UTC(),
	})
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestMessageRepository_GetByID(t *testing.T) {
	orm, mock := newMockDB(t)
	mock.MatchExpectationsInOrder(false)
	repo := NewMessageRepository(orm)
	sent := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM `message` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_username", "to_username", "body", "sent_at", "read_at"}).
			AddRow("01HX", "alice", "bob", "hi", sent, nil))
	summary := []string{"username", "first_name", "last_name", "phone"}
	mock.ExpectQuery("FROM `user`").WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(summary).AddRow("alice", "Alice", "A", "555"))
	mock.ExpectQuery("FROM `user`").WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(summary).AddRow("bob", "Bob", "B", "556"))

	m, err := repo.GetByID(context.Background(), "01HX")
	require.NoError(t, err)
	assert.Equal(t, "hi", m.Body)
	assert.Equal(t, sent, m.SentAt)
	assert.Nil(t, m.ReadAt)
	assert.Equal(t, "Alice", m.FromUser.FirstName)
	assert.Equal(t, "Bob", m.ToUser.FirstName)
	assert.Empty(t, m.FromUser.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_GetByID_NotFound(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewMessageRepository(orm)

	mock.ExpectQuery("FROM `message` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	m, err := repo.GetByID(context.Background(), "nope")
	assert.Nil(t, m)
	assert.ErrorIs(t, err, errs.ErrMessageNotFound)
}

func TestMessageRepository_Participants(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewMessageRepository(orm)

	mock.ExpectQuery("SELECT `from_username`,`to_username` FROM `message` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"from_username", "to_username"}).AddRow("alice", "bob"))

	p, err := repo.Participants(context.Background(), "01HX")
	require.NoError(t, err)
	assert.Equal(t, model.Participants{From: "alice", To: "bob"}, p)
}

func TestMessageRepository_MarkRead_FirstCallWins(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewMessageRepository(orm)
	first := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	mock.ExpectExec("UPDATE `message` SET `read_at`=\\? WHERE id = \\? AND read_at IS NULL").
		WithArgs(sqlmock.AnyArg(), "01HX").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT `id`,`read_at` FROM `message` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "read_at"}).AddRow("01HX", first))

	m, err := repo.MarkRead(context.Background(), "01HX", first)
	require.NoError(t, err)
	require.NotNil(t, m.ReadAt)
	assert.Equal(t, first, *m.ReadAt)

	// second call matches no row and reports the stored timestamp
	mock.ExpectExec("UPDATE `message` SET `read_at`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT `id`,`read_at` FROM `message`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "read_at"}).AddRow("01HX", first))

	m, err = repo.MarkRead(context.Background(), "01HX", later)
	require.NoError(t, err)
	assert.Equal(t, first, *m.ReadAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_MarkRead_NotFound(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewMessageRepository(orm)

	mock.ExpectExec("UPDATE `message`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM `message`").WillReturnRows(sqlmock.NewRows([]string{"id", "read_at"}))

	_, err := repo.MarkRead(context.Background(), "nope", time.Now())
	assert.ErrorIs(t, err, errs.ErrMessageNotFound)
}

func TestMessageRepository_ListTo(t *testing.T) {
	orm, mock := newMockDB(t)
	mock.MatchExpectationsInOrder(false)
	repo := NewMessageRepository(orm)
	t1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	mock.ExpectQuery("FROM `message` WHERE to_username = \\? ORDER BY sent_at ASC, id ASC").
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_username", "to_username", "body", "sent_at", "read_at"}).
			AddRow("01HA", "alice", "bob", "first", t1, nil).
			AddRow("01HB", "alice", "bob", "second", t2, t2))
	mock.ExpectQuery("FROM `user`").
		WillReturnRows(sqlmock.NewRows([]string{"username", "first_name", "last_name", "phone"}).
			AddRow("alice", "Alice", "A", "555"))

	messages, err := repo.ListTo(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Body)
	assert.Equal(t, "Alice", messages[0].FromUser.FirstName)
	assert.Equal(t, "Alice", messages[1].FromUser.FirstName)
	require.NotNil(t, messages[1].ReadAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_ListFrom_Empty(t *testing.T) {
	orm, mock := newMockDB(t)
	repo := NewMessageRepository(orm)

	mock.ExpectQuery("FROM `message` WHERE from_username = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_username", "to_username", "body", "sent_at", "read_at"}))

	messages, err := repo.ListFrom(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
	require.NoError(t, mock.ExpectationsWereMet())
}
