package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"messagely/config"
	"messagely/internal/handler"
	"messagely/internal/middleware"
	"messagely/internal/service"
	"messagely/internal/testutil"
	"messagely/pkg/jwt"
	"messagely/pkg/password"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unauthorized = `{"message":"Unauthorized","status":401}`

type app struct {
	t      *testing.T
	engine *gin.Engine
}

func newApp(t *testing.T, dbErr error) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hasher, err := password.NewHasher(4)
	require.NoError(t, err)
	tokens := jwt.NewService(config.JWTConfig{Secret: "router-secret"})
	userStore := testutil.NewUserStore()
	messageStore := testutil.NewMessageStore(userStore)

	users := service.NewUserService(userStore, tokens, hasher)
	messages := service.NewMessageService(messageStore, userStore).WithCache(testutil.NewParticipantCache())

	engine := New(Deps{
		Guards:   middleware.NewAuthenticator(tokens, messages, config.AuthConfig{TokenField: "_token", AllowBearer: true}),
		Auth:     handler.NewAuthHandler(users),
		Users:    handler.NewUserHandler(users, messages),
		Messages: handler.NewMessageHandler(messages),
		Health:   handler.NewHealthHandler(func(context.Context) error { return dbErr }, nil, nil),
	})
	return &app{t: t, engine: engine}
}

// do sends body as JSON. A non-empty token goes in the Authorization header.
func (a *app) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *app) register(username, first string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/auth/register", gin.H{
		"username": username, "password": username + "-pw",
		"first_name": first, "last_name": "Test", "phone": "555-0100",
	}, "")
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(a.t, w)["token"].(string)
	require.NotEmpty(a.t, token)
	return token
}

func TestAuthRoutes(t *testing.T) {
	a := newApp(t, nil)
	a.register("alice", "Alice")

	w := a.do(http.MethodPost, "/auth/register", gin.H{"username": "alice", "password": "x"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"username already taken","status":409}`, w.Body.String())

	w = a.do(http.MethodPost, "/auth/login", gin.H{"username": "alice", "password": "alice-pw"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["token"])

	for _, creds := range []gin.H{
		{"username": "alice", "password": "wrong"},
		{"username": "nobody", "password": "alice-pw"},
	} {
		w = a.do(http.MethodPost, "/auth/login", creds, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"message":"Invalid user/password","status":400}`, w.Body.String())
	}

	w = a.do(http.MethodPost, "/auth/login", gin.H{"username": "alice"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"password is required","status":400}`, w.Body.String())

	w = a.do(http.MethodPost, "/auth/login", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserRoutes(t *testing.T) {
	a := newApp(t, nil)
	alice := a.register("alice", "Alice")
	a.register("bob", "Bob")

	// token in the JSON body of a GET, as older clients send it
	w := a.do(http.MethodGet, "/users", gin.H{"_token": alice}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"users":[
		{"username":"alice","first_name":"Alice","last_name":"Test","phone":"555-0100"},
		{"username":"bob","first_name":"Bob","last_name":"Test","phone":"555-0100"}]}`, w.Body.String())

	w = a.do(http.MethodGet, "/users?_token="+alice, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, unauthorized, w.Body.String())

	w = a.do(http.MethodGet, "/users", gin.H{"_token": "garbage"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, unauthorized, w.Body.String())

	w = a.do(http.MethodGet, "/users/alice", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.NotEmpty(t, user["joined_at"])
	assert.NotNil(t, user["last_login_at"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "password_hash")

	for _, path := range []string{"/users/bob", "/users/bob/to", "/users/bob/from", "/users/test2"} {
		w = a.do(http.MethodGet, path, nil, alice)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, unauthorized, w.Body.String(), path)
	}

	for _, path := range []string{"/users/alice/to", "/users/alice/from"} {
		w = a.do(http.MethodGet, path, nil, alice)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, `{"messages":[]}`, w.Body.String(), path)
	}
}

func TestMessageFlow(t *testing.T) {
	a := newApp(t, nil)
	alice := a.register("alice", "Alice")
	bob := a.register("bob", "Bob")
	carol := a.register("carol", "Carol")

	// from_username in the body is ignored; the sender is the token holder
	w := a.do(http.MethodPost, "/messages", gin.H{
		"_token": alice, "to_username": "bob", "body": "hello bob", "from_username": "carol",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode(t, w)["message"].(map[string]interface{})
	id := created["id"].(string)
	assert.Equal(t, "alice", created["from_username"])
	assert.Equal(t, "bob", created["to_username"])
	assert.Equal(t, "hello bob", created["body"])
	assert.NotEmpty(t, created["sent_at"])
	readAt, present := created["read_at"]
	assert.True(t, present, "read_at must be present")
	assert.Nil(t, readAt)

	// detail for either participant
	for _, token := range []string{alice, bob} {
		w = a.do(http.MethodGet, "/messages/"+id, nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		m := decode(t, w)["message"].(map[string]interface{})
		assert.Equal(t, "Alice", m["from_user"].(map[string]interface{})["first_name"])
		assert.Equal(t, "Bob", m["to_user"].(map[string]interface{})["first_name"])
		assert.Nil(t, m["read_at"])
	}

	for _, path := range []string{"/messages/" + id, "/messages/unknown-id"} {
		w = a.do(http.MethodGet, path, nil, carol)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, unauthorized, w.Body.String(), path)
	}

	// only the recipient may mark it read
	w = a.do(http.MethodPost, "/messages/"+id+"/read", nil, alice)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, unauthorized, w.Body.String())

	w = a.do(http.MethodPost, "/messages/"+id+"/read", nil, bob)
	require.Equal(t, http.StatusOK, w.Code)
	receipt := decode(t, w)["message"].(map[string]interface{})
	assert.Equal(t, id, receipt["id"])
	readAt = receipt["read_at"]
	require.NotNil(t, readAt)

	w = a.do(http.MethodPost, "/messages/"+id+"/read", gin.H{"_token": bob}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, readAt, decode(t, w)["message"].(map[string]interface{})["read_at"])

	// histories
	w = a.do(http.MethodGet, "/users/bob/to", nil, bob)
	require.Equal(t, http.StatusOK, w.Code)
	inbox := decode(t, w)["messages"].([]interface{})
	require.Len(t, inbox, 1)
	entry := inbox[0].(map[string]interface{})
	assert.Equal(t, id, entry["id"])
	assert.Equal(t, "alice", entry["from_user"].(map[string]interface{})["username"])
	assert.Equal(t, readAt, entry["read_at"])

	w = a.do(http.MethodGet, "/users/alice/from", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	outbox := decode(t, w)["messages"].([]interface{})
	require.Len(t, outbox, 1)
	assert.Equal(t, "bob", outbox[0].(map[string]interface{})["to_user"].(map[string]interface{})["username"])
}

func TestCreateMessage_KeepsBodyVerbatim(t *testing.T) {
	a := newApp(t, nil)
	alice := a.register("alice", "Alice")
	bob := a.register("bob", "Bob")

	w := a.do(http.MethodPost, "/messages", gin.H{"to_username": "bob", "body": "  hi  "}, alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode(t, w)["message"].(map[string]interface{})
	assert.Equal(t, "  hi  ", created["body"])

	w = a.do(http.MethodGet, "/messages/"+created["id"].(string), nil, bob)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "  hi  ", decode(t, w)["message"].(map[string]interface{})["body"])
}

func TestCreateMessage_Rejects(t *testing.T) {
	a := newApp(t, nil)
	alice := a.register("alice", "Alice")

	w := a.do(http.MethodPost, "/messages", gin.H{"to_username": "ghost", "body": "hi"}, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"user not found","status":404}`, w.Body.String())

	w = a.do(http.MethodPost, "/messages", gin.H{"to_username": "alice"}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"body is required","status":400}`, w.Body.String())

	w = a.do(http.MethodPost, "/messages", gin.H{"to_username": "alice", "body": "   "}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/messages", gin.H{"to_username": "alice", "body": "hi"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	w := newApp(t, nil).do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = newApp(t, errors.New("down")).do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, "db-down", decode(t, w)["status"])
}
