package errs

import "fmt"

var (
	ErrUnauthorized       = New(CodeUnauthorized, "Unauthorized")
	ErrInvalidToken       = New(CodeUnauthorized, "invalid token")
	ErrInvalidCredentials = New(CodeInvalidInput, "Invalid user/password")
	ErrDuplicateUser      = New(CodeConflict, "username already taken")
	ErrUserNotFound       = New(CodeNotFound, "user not found")
	ErrMessageNotFound    = New(CodeNotFound, "message not found")
)

// UserNotFound names the missing user while still matching ErrUserNotFound
// through errors.Is.
func UserNotFound(username string) error {
	return Wrap(CodeNotFound, "user not found", fmt.Errorf("no user %q", username))
}

// MessageNotFound names the missing message id.
func MessageNotFound(id string) error {
	return Wrap(CodeNotFound, "message not found", fmt.Errorf("no message %q", id))
}
