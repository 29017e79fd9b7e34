package handlers_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification_service/internal/appMiddleware"
	"notification_service/internal/auth"
	"notification_service/internal/cache"
	"notification_service/internal/handlers"
	"notification_service/internal/models"
	"notification_service/internal/services"
)

// The fixtures below stand in for postgres and redis so the full HTTP
// stack (router, middleware, handlers, auth flow, feed cache) runs
// in-process.

type memoryCache struct {
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	value, ok := c.entries[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return value, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Incr(_ context.Context, key string) (int64, error) {
	var current int64
	if raw, ok := c.entries[key]; ok {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			current = parsed
		}
	}
	current++
	c.entries[key] = strconv.FormatInt(current, 10)
	return current, nil
}

type memoryUsers struct {
	users  map[string]*models.User
	nextID int64
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*models.User), nextID: 1}
}

func (m *memoryUsers) UserExists(_ context.Context, username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *memoryUsers) CreateUser(_ context.Context, username, passwordHash string, avatarURL *string) (*models.User, error) {
	if _, ok := m.users[username]; ok {
		return nil, models.ErrUserExists
	}
	user := &models.User{
		ID:           m.nextID,
		Username:     username,
		AvatarURL:    avatarURL,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.nextID++
	m.users[username] = user
	return user, nil
}

func (m *memoryUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func (m *memoryUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, models.ErrUserNotFound
}

type memoryNotifications struct {
	users  *memoryUsers
	rows   []models.Notification
	owners map[int64]int64
	nextID int64
}

func newMemoryNotifications(users *memoryUsers) *memoryNotifications {
	return &memoryNotifications{users: users, owners: make(map[int64]int64), nextID: 1}
}

func (m *memoryNotifications) FetchPage(_ context.Context, userID int64, offset, limit int) ([]models.Notification, int, error) {
	var owned []models.Notification
	for _, row := range m.rows {
		if m.owners[row.ID] == userID {
			owned = append(owned, row)
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID > owned[j].ID
	})

	total := len(owned)
	if offset >= total {
		return []models.Notification{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return owned[offset:end], total, nil
}

func (m *memoryNotifications) CreateNotification(_ context.Context, userID int64, notifType models.NotificationType, text *string) error {
	meta := models.UserMeta{Username: "unknown"}
	for _, user := range m.users.users {
		if user.ID == userID {
			meta = models.UserMeta{Username: user.Username, AvatarURL: user.AvatarURL}
		}
	}

	m.rows = append(m.rows, models.Notification{
		ID:        m.nextID,
		Type:      notifType,
		Text:      text,
		CreatedAt: time.Now(),
		User:      meta,
	})
	m.owners[m.nextID] = userID
	m.nextID++
	return nil
}

func (m *memoryNotifications) DeleteNotification(_ context.Context, userID, notificationID int64) error {
	if m.owners[notificationID] != userID {
		return models.ErrNotificationNotFound
	}
	for i, row := range m.rows {
		if row.ID == notificationID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			delete(m.owners, notificationID)
			return nil
		}
	}
	return models.ErrNotificationNotFound
}

type testApp struct {
	router *chi.Mux
	tokens *auth.TokenService
	users  *memoryUsers
}

func newTestApp() *testApp {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	users := newMemoryUsers()
	notifications := newMemoryNotifications(users)
	tokens := auth.NewTokenService("test-secret-key", 24*time.Hour, 7*24*time.Hour)

	feedService := services.NewFeedService(notifications, newMemoryCache(), time.Hour, log)
	authService := auth.NewService(users, tokens)

	authHandler := handlers.NewAuthHandler(authService, log)
	notificationHandler := handlers.NewNotificationHandler(feedService, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/refresh", authHandler.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.AuthMiddleware(tokens, log))
		r.Get("/notifications", notificationHandler.List)
		r.Post("/notifications", notificationHandler.Create)
		r.Delete("/notifications/{id}", notificationHandler.Delete)
	})

	return &testApp{router: r, tokens: tokens, users: users}
}

func (app *testApp) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) registerUser(t *testing.T, username string) auth.TokenPair {
	t.Helper()

	w := app.do(t, http.MethodPost, "/auth/register", "",
		`{"username":"`+username+`","password":"Str0ng!pass"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		UserID int64          `json:"user_id"`
		Tokens auth.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Tokens
}

func TestNotifications_EndToEnd(t *testing.T) {
	app := newTestApp()

	// Register and login.
	app.registerUser(t, "alice")

	w := app.do(t, http.MethodPost, "/auth/login", "",
		`{"username":"alice","password":"Str0ng!pass"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var tokens auth.TokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))

	// Create a notification.
	w = app.do(t, http.MethodPost, "/notifications", tokens.AccessToken,
		`{"type":"like","text":"Hello"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// List returns exactly it.
	w = app.do(t, http.MethodGet, "/notifications", tokens.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	var page models.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, models.NotificationLike, page.Data[0].Type)
	require.NotNil(t, page.Data[0].Text)
	assert.Equal(t, "Hello", *page.Data[0].Text)
	assert.Equal(t, "alice", page.Data[0].User.Username)
	assert.Equal(t, 1, page.Meta.TotalItems)

	// Delete it.
	id := strconv.FormatInt(page.Data[0].ID, 10)
	w = app.do(t, http.MethodDelete, "/notifications/"+id, tokens.AccessToken, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	// The feed is empty again.
	w = app.do(t, http.MethodGet, "/notifications", tokens.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Empty(t, page.Data)
	assert.Equal(t, 0, page.Meta.TotalItems)
}

func TestNotifications_UniformUnauthorized(t *testing.T) {
	app := newTestApp()
	app.registerUser(t, "alice")

	expired := auth.NewTokenService("test-secret-key", -time.Minute, -time.Minute)
	expiredToken, err := expired.Issue(1, auth.TokenKindAccess)
	require.NoError(t, err)

	refreshService := auth.NewTokenService("test-secret-key", 24*time.Hour, 7*24*time.Hour)
	refreshToken, err := refreshService.Issue(1, auth.TokenKindRefresh)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "not-a-jwt"},
		{name: "expired token", token: expiredToken},
		{name: "refresh token on access route", token: refreshToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, http.MethodGet, "/notifications", tt.token, "")

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"unauthorized"`)
		})
	}
}

func TestNotifications_CreateValidation(t *testing.T) {
	app := newTestApp()
	tokens := app.registerUser(t, "alice")

	w := app.do(t, http.MethodPost, "/notifications", tokens.AccessToken,
		`{"type":"shout"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"validation_error"`)
	assert.Contains(t, w.Body.String(), `"type"`)
}

func TestNotifications_DeleteOtherUsers(t *testing.T) {
	app := newTestApp()

	aliceTokens := app.registerUser(t, "alice")
	bobTokens := app.registerUser(t, "bob")

	w := app.do(t, http.MethodPost, "/notifications", aliceTokens.AccessToken,
		`{"type":"comment","text":"mine"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.do(t, http.MethodGet, "/notifications", aliceTokens.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	var page models.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	id := strconv.FormatInt(page.Data[0].ID, 10)

	// Bob cannot delete alice's notification; the response does not reveal
	// that the row exists.
	w = app.do(t, http.MethodDelete, "/notifications/"+id, bobTokens.AccessToken, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"notification_not_found"`)

	// Alice still sees it.
	w = app.do(t, http.MethodGet, "/notifications", aliceTokens.AccessToken, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 1)
}

func TestNotifications_PaginationParams(t *testing.T) {
	app := newTestApp()
	tokens := app.registerUser(t, "alice")

	for i := 0; i < 3; i++ {
		w := app.do(t, http.MethodPost, "/notifications", tokens.AccessToken,
			`{"type":"repost"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := app.do(t, http.MethodGet, "/notifications?offset=1&limit=1", tokens.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	var page models.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 3, page.Meta.TotalItems)
	assert.Equal(t, 3, page.Meta.TotalPages)
	assert.True(t, page.Meta.HasNext)
	assert.True(t, page.Meta.HasPrev)

	w = app.do(t, http.MethodGet, "/notifications?offset=abc", tokens.AccessToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"offset"`)
}

func TestRefresh_EndToEnd(t *testing.T) {
	app := newTestApp()
	tokens := app.registerUser(t, "alice")

	w := app.do(t, http.MethodPost, "/auth/refresh", tokens.RefreshToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// The minted access token works on protected routes.
	w = app.do(t, http.MethodGet, "/notifications", resp.AccessToken, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefresh_BlockedUser(t *testing.T) {
	app := newTestApp()
	tokens := app.registerUser(t, "alice")

	app.users.users["alice"].Blocked = true

	w := app.do(t, http.MethodPost, "/auth/refresh", tokens.RefreshToken, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
