package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	v1 "task-management-api/internal/api/v1"
	"task-management-api/internal/api/v1/handlers"
	"task-management-api/internal/credential"
	"task-management-api/internal/mock"
	"task-management-api/internal/models"
	"task-management-api/internal/token"
	"task-management-api/pkg/database"
	"task-management-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	t     *testing.T
	app   *fiber.App
	tasks *mock.TaskRepository
}

// newTestEnv menyiapkan app lengkap dengan store in-memory dan registry Badger in-memory.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.UseNop()

	db, err := database.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	credentials := credential.NewStore(mock.NewUserRepository())
	issuer := token.NewIssuer([]byte("test-secret"), token.NewBadgerRegistry(db), credentials)
	tasks := mock.NewTaskRepository()

	app := v1.NewApp()
	v1.RegisterRoutes(app, handlers.New(credentials, issuer, tasks), issuer)
	return &testEnv{t: t, app: app, tasks: tasks}
}

// do sends a request and returns the status code and raw body.
func (e *testEnv) do(method, path, bearer string, body interface{}) (int, []byte) {
	e.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), "body: %s", data)
	return out
}

type tokenBody struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func registerBody(username, role string) map[string]string {
	return map[string]string{
		"username":              username,
		"first_name":            "First",
		"last_name":             "Last",
		"password":              "password",
		"password_confirmation": "password",
		"role":                  role,
	}
}

// register creates a user and returns its token and id.
func (e *testEnv) register(username, role string) (string, int) {
	e.t.Helper()
	status, data := e.do(http.MethodPost, "/register", "", registerBody(username, role))
	require.Equal(e.t, http.StatusCreated, status, "body: %s", data)
	tok := decode[tokenBody](e.t, data)

	status, data = e.do(http.MethodGet, "/me", tok.AccessToken, nil)
	require.Equal(e.t, http.StatusOK, status)
	return tok.AccessToken, decode[models.User](e.t, data).ID
}

func (e *testEnv) seedTask(ownerID int, title string) *models.Task {
	e.t.Helper()
	task := &models.Task{UserID: ownerID, Title: title, Status: models.StatusInProgress}
	require.NoError(e.t, e.tasks.Create(context.Background(), task))
	return task
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	status, data := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestRegisterReturnsToken(t *testing.T) {
	env := newTestEnv(t)

	status, data := env.do(http.MethodPost, "/register", "", registerBody("saad_lasfer", "user"))
	require.Equal(t, http.StatusCreated, status)
	tok := decode[tokenBody](t, data)
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)

	status, data = env.do(http.MethodGet, "/me", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[map[string]interface{}](t, data)
	assert.Equal(t, "saad_lasfer", me["username"])
	assert.Equal(t, "user", me["role"])
	assert.NotContains(t, me, "password")
	assert.NotContains(t, me, "PasswordHash")
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register("zak", "admin")

	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"duplicate username", registerBody("zak", "user"), "username"},
		{"short password", func() map[string]string {
			b := registerBody("a", "user")
			b["password"], b["password_confirmation"] = "123", "123"
			return b
		}(), "password"},
		{"confirmation mismatch", func() map[string]string {
			b := registerBody("b", "user")
			b["password_confirmation"] = "other-password"
			return b
		}(), "password_confirmation"},
		{"bad role", registerBody("c", "root"), "role"},
		{"password over 72 bytes", func() map[string]string {
			b := registerBody("d", "user")
			b["password"] = strings.Repeat("a", 80)
			b["password_confirmation"] = b["password"]
			return b
		}(), "password"},
		{"username too long", registerBody(strings.Repeat("u", 256), "user"), "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := env.do(http.MethodPost, "/register", "", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, status)
			body := decode[errorBody](t, data)
			assert.NotEmpty(t, body.Message)
			assert.Contains(t, body.Errors, tt.field)
		})
	}

	// body rusak dan tipe field yang salah sama-sama data tidak valid
	for _, raw := range []string{`{"username":`, `{"username":"e","role":1}`} {
		status, data := env.do(http.MethodPost, "/register", "", raw)
		assert.Equal(t, http.StatusUnprocessableEntity, status, "body %s", raw)
		assert.NotEmpty(t, decode[errorBody](t, data).Message)
	}
}

func TestRegisterLongestPassword(t *testing.T) {
	env := newTestEnv(t)
	password := strings.Repeat("a", 72)
	body := registerBody("nis", "user")
	body["password"], body["password_confirmation"] = password, password

	status, data := env.do(http.MethodPost, "/register", "", body)
	require.Equal(t, http.StatusCreated, status, "body: %s", data)

	status, _ = env.do(http.MethodPost, "/login", "", map[string]string{"username": "nis", "password": password})
	assert.Equal(t, http.StatusOK, status)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	registered, id := env.register("nis", "user")

	status, data := env.do(http.MethodPost, "/login", "", map[string]string{"username": "nis", "password": "password"})
	require.Equal(t, http.StatusOK, status)
	tok := decode[tokenBody](t, data)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.NotEqual(t, registered, tok.AccessToken)

	status, data = env.do(http.MethodGet, "/me", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, decode[models.User](t, data).ID)

	status, data = env.do(http.MethodPost, "/login", "", map[string]string{"username": "nis", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", decode[errorBody](t, data).Message)

	status, _ = env.do(http.MethodPost, "/login", "", map[string]string{"username": "ghost", "password": "password"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, data = env.do(http.MethodPost, "/login", "", map[string]string{"username": "nis"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, decode[errorBody](t, data).Errors, "password")
}

func TestLogoutRevokesOnlyCurrentToken(t *testing.T) {
	env := newTestEnv(t)
	first, _ := env.register("nis", "user")
	status, data := env.do(http.MethodPost, "/login", "", map[string]string{"username": "nis", "password": "password"})
	require.Equal(t, http.StatusOK, status)
	second := decode[tokenBody](t, data).AccessToken

	status, data = env.do(http.MethodPost, "/logout", first, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out", decode[map[string]string](t, data)["message"])

	status, _ = env.do(http.MethodGet, "/me", first, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.do(http.MethodPost, "/logout", first, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(http.MethodGet, "/me", second, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestUnauthenticatedRequests(t *testing.T) {
	env := newTestEnv(t)
	routes := []struct{ method, path string }{
		{http.MethodPost, "/logout"},
		{http.MethodGet, "/me"},
		{http.MethodGet, "/users"},
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks/1"},
		{http.MethodPut, "/tasks/1"},
		{http.MethodDelete, "/tasks/1"},
	}
	for _, r := range routes {
		status, data := env.do(r.method, r.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, "%s %s", r.method, r.path)
		assert.NotEmpty(t, decode[errorBody](t, data).Message)

		status, _ = env.do(r.method, r.path, "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, status, "%s %s with garbage token", r.method, r.path)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListUsersAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register("zak", "admin")
	user, _ := env.register("nis", "user")

	status, data := env.do(http.MethodGet, "/users", admin, nil)
	require.Equal(t, http.StatusOK, status)
	users := decode[[]map[string]interface{}](t, data)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotContains(t, u, "password")
	}

	status, data = env.do(http.MethodGet, "/users", user, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Forbidden", decode[errorBody](t, data).Message)
}

// TestAdminAndUserScenario mengikuti alur admin "zak" dan user "nis".
func TestAdminAndUserScenario(t *testing.T) {
	env := newTestEnv(t)
	zak, zakID := env.register("zak", "admin")
	nis, _ := env.register("nis", "user")

	status, data := env.do(http.MethodPost, "/tasks", zak, map[string]string{"title": "T1", "status": "in_progress"})
	require.Equal(t, http.StatusCreated, status, "body: %s", data)
	t1 := decode[models.Task](t, data)
	assert.Equal(t, "T1", t1.Title)
	assert.Equal(t, zakID, t1.UserID)
	assert.Nil(t, t1.Description)

	status, data = env.do(http.MethodGet, "/tasks", nis, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(data))

	status, data = env.do(http.MethodGet, "/tasks", zak, nil)
	require.Equal(t, http.StatusOK, status)
	all := decode[[]models.Task](t, data)
	require.Len(t, all, 1)
	assert.Equal(t, t1.ID, all[0].ID)

	status, _ = env.do(http.MethodGet, "/tasks/"+itoa(t1.ID), nis, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestUsersOnlySeeOwnTasks(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register("zak", "admin")
	alice, aliceID := env.register("alice", "user")
	bob, bobID := env.register("bob", "user")

	for _, title := range []string{"a1", "a2", "a3"} {
		env.seedTask(aliceID, title)
	}
	bobTask := env.seedTask(bobID, "b1")

	status, data := env.do(http.MethodGet, "/tasks", alice, nil)
	require.Equal(t, http.StatusOK, status)
	aliceTasks := decode[[]models.Task](t, data)
	require.Len(t, aliceTasks, 3)
	for _, task := range aliceTasks {
		assert.Equal(t, aliceID, task.UserID)
	}

	status, data = env.do(http.MethodGet, "/tasks", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Task](t, data), 1)

	status, data = env.do(http.MethodGet, "/tasks", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Task](t, data), 4)

	status, _ = env.do(http.MethodGet, "/tasks/"+itoa(bobTask.ID), alice, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, data = env.do(http.MethodGet, "/tasks/"+itoa(bobTask.ID), bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "b1", decode[models.Task](t, data).Title)
	status, _ = env.do(http.MethodGet, "/tasks/"+itoa(bobTask.ID), admin, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCreateTask(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register("zak", "admin")
	user, _ := env.register("nis", "user")

	status, data := env.do(http.MethodPost, "/tasks", admin, map[string]string{
		"title":       "Test Task",
		"description": "Test description",
		"status":      "in_progress",
	})
	require.Equal(t, http.StatusCreated, status)
	task := decode[models.Task](t, data)
	require.NotNil(t, task.Description)
	assert.Equal(t, "Test description", *task.Description)

	status, _ = env.do(http.MethodPost, "/tasks", user, map[string]string{"title": "Task", "status": "done"})
	assert.Equal(t, http.StatusForbidden, status)

	status, data = env.do(http.MethodPost, "/tasks", admin, map[string]string{"status": "done"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, decode[errorBody](t, data).Errors, "title")

	status, data = env.do(http.MethodPost, "/tasks", admin, map[string]string{"title": strings.Repeat("t", 256), "status": "done"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, decode[errorBody](t, data).Errors, "title")

	status, data = env.do(http.MethodPost, "/tasks", admin, map[string]string{"title": "x", "status": "pending"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, decode[errorBody](t, data).Errors, "status")

	status, data = env.do(http.MethodGet, "/tasks", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Task](t, data), 1, "rejected requests must not create tasks")
}

func TestUpdateTask(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register("zak", "admin")
	user, userID := env.register("nis", "user")
	task := env.seedTask(userID, "original")

	status, data := env.do(http.MethodPut, "/tasks/"+itoa(task.ID), admin, map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, status, "body: %s", data)
	updated := decode[models.Task](t, data)
	assert.Equal(t, models.StatusDone, updated.Status)
	assert.Equal(t, "original", updated.Title)
	assert.Equal(t, userID, updated.UserID)

	status, data = env.do(http.MethodPut, "/tasks/"+itoa(task.ID), admin, map[string]string{"title": "renamed", "description": "more"})
	require.Equal(t, http.StatusOK, status)
	updated = decode[models.Task](t, data)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, models.StatusDone, updated.Status)

	status, _ = env.do(http.MethodPut, "/tasks/"+itoa(task.ID), admin, nil)
	assert.Equal(t, http.StatusOK, status)

	status, data = env.do(http.MethodPut, "/tasks/"+itoa(task.ID), admin, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, decode[errorBody](t, data).Errors, "status")

	status, data = env.do(http.MethodPut, "/tasks/"+itoa(task.ID), admin, map[string]string{"title": strings.Repeat("t", 256)})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, decode[errorBody](t, data).Errors, "title")

	status, _ = env.do(http.MethodPut, "/tasks/9999", admin, map[string]string{"status": "done"})
	assert.Equal(t, http.StatusNotFound, status)

	// route update hanya untuk admin, termasuk untuk pemilik task
	status, _ = env.do(http.MethodPut, "/tasks/"+itoa(task.ID), user, map[string]string{"status": "in_progress"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestUpdateTaskDescription(t *testing.T) {
	env := newTestEnv(t)
	admin, adminID := env.register("zak", "admin")
	task := env.seedTask(adminID, "described")

	status, data := env.do(http.MethodPut, "/tasks/"+itoa(task.ID), admin, map[string]string{"description": "some text"})
	require.Equal(t, http.StatusOK, status, "body: %s", data)
	require.NotNil(t, decode[models.Task](t, data).Description)

	// field yang tidak dikirim tidak mengubah deskripsi
	status, data = env.do(http.MethodPut, "/tasks/"+itoa(task.ID), admin, map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, status)
	updated := decode[models.Task](t, data)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "some text", *updated.Description)

	// null menghapus deskripsi
	status, data = env.do(http.MethodPut, "/tasks/"+itoa(task.ID), admin, `{"description": null}`)
	require.Equal(t, http.StatusOK, status, "body: %s", data)
	updated = decode[models.Task](t, data)
	assert.Nil(t, updated.Description)
	assert.Equal(t, models.StatusDone, updated.Status)

	status, _ = env.do(http.MethodPut, "/tasks/"+itoa(task.ID), admin, `{"description": 5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestTaskIDOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.register("zak", "admin")

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		status, data := env.do(method, "/tasks/3000000000", admin, nil)
		assert.Equal(t, http.StatusNotFound, status, "%s body: %s", method, data)
	}
}

func TestDeleteTask(t *testing.T) {
	env := newTestEnv(t)
	admin, adminID := env.register("zak", "admin")
	user, _ := env.register("nis", "user")
	task := env.seedTask(adminID, "to delete")

	status, _ := env.do(http.MethodDelete, "/tasks/9999", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(http.MethodDelete, "/tasks/"+itoa(task.ID), user, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, data := env.do(http.MethodDelete, "/tasks/"+itoa(task.ID), admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Task deleted", decode[map[string]string](t, data)["message"])

	status, _ = env.do(http.MethodGet, "/tasks/"+itoa(task.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(http.MethodDelete, "/tasks/"+itoa(task.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestShowTaskNotFound(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.register("nis", "user")

	status, data := env.do(http.MethodGet, "/tasks/42", user, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Task not found", decode[errorBody](t, data).Message)

	status, _ = env.do(http.MethodGet, "/tasks/abc", user, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
