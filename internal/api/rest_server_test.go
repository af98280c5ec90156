package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/tile-match/internal/auth"
	"github.com/annel0/tile-match/internal/game"
	"github.com/annel0/tile-match/internal/level"
	"github.com/annel0/tile-match/internal/progress"
	"github.com/annel0/tile-match/internal/save"
	"github.com/annel0/tile-match/internal/storage"
)

func newTestServer(t *testing.T) *RestServer {
	t.Helper()

	repo, err := auth.NewMemoryPlayerRepo()
	require.NoError(t, err)

	codec, err := save.NewCodec("", false)
	require.NoError(t, err)
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	catalog, err := level.LoadCatalog("nonexistent.json")
	require.NoError(t, err)
	sessions := game.NewManager(catalog)
	t.Cleanup(sessions.Stop)

	return NewRestServer(Config{
		Port:       ":0",
		PlayerRepo: repo,
		Sessions:   sessions,
		Progress:   progress.NewService(repo, codec, store),
	})
}

func doJSON(t *testing.T, rs *RestServer, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	rs.Router().ServeHTTP(rec, req)
	return rec
}

func loginTestPlayer(t *testing.T, rs *RestServer) string {
	t.Helper()

	rec := doJSON(t, rs, http.MethodPost, "/api/auth/login", "",
		LoginRequest{Username: "test", Password: "test"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// TestHealth проверяет health-эндпоинт
func TestHealth(t *testing.T) {
	rs := newTestServer(t)
	rec := doJSON(t, rs, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestLoginFlow проверяет вход и отказ по неверному паролю
func TestLoginFlow(t *testing.T) {
	rs := newTestServer(t)

	token := loginTestPlayer(t, rs)
	assert.NotEmpty(t, token)

	rec := doJSON(t, rs, http.MethodPost, "/api/auth/login", "",
		LoginRequest{Username: "test", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestProtectedRequiresToken проверяет JWT-защиту игровых маршрутов
func TestProtectedRequiresToken(t *testing.T) {
	rs := newTestServer(t)

	rec := doJSON(t, rs, http.MethodGet, "/api/progress", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, rs, http.MethodGet, "/api/progress", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestStartAndPlay проверяет игровой цикл через HTTP
func TestStartAndPlay(t *testing.T) {
	rs := newTestServer(t)
	token := loginTestPlayer(t, rs)

	// Старт текущего уровня (тело пустое)
	rec := doJSON(t, rs, http.MethodPost, "/api/game/start", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var startResp struct {
		Success bool          `json:"success"`
		Data    game.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &startResp))
	require.True(t, startResp.Success)
	require.NotEmpty(t, startResp.Data.SessionID)
	require.Len(t, startResp.Data.Board, level.TileCountFor(1))

	sessionID := startResp.Data.SessionID

	// Состояние сессии
	rec = doJSON(t, rs, http.MethodGet, "/api/game/"+sessionID+"/state", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Перенос первой плитки поля
	firstIdx := startResp.Data.Board[0].Index
	rec = doJSON(t, rs, http.MethodPost, "/api/game/"+sessionID+"/pick", token,
		PickTileRequest{Index: firstIdx})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Повторный перенос той же плитки отклоняется
	rec = doJSON(t, rs, http.MethodPost, "/api/game/"+sessionID+"/pick", token,
		PickTileRequest{Index: firstIdx})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Расширение рюкзака — один раз
	rec = doJSON(t, rs, http.MethodPost, "/api/game/"+sessionID+"/extend", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, rs, http.MethodPost, "/api/game/"+sessionID+"/extend", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Чужой идентификатор сессии
	rec = doJSON(t, rs, http.MethodGet, "/api/game/no-such-session/state", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestLockedLevelForbidden проверяет запрет старта закрытого уровня
func TestLockedLevelForbidden(t *testing.T) {
	rs := newTestServer(t)
	token := loginTestPlayer(t, rs)

	rec := doJSON(t, rs, http.MethodPost, "/api/game/start", token,
		StartLevelRequest{Ordinal: 5})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, rs, http.MethodPut, "/api/progress/current", token,
		SetCurrentLevelRequest{Ordinal: 5})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestRegisterFlow проверяет регистрацию нового игрока
func TestRegisterFlow(t *testing.T) {
	rs := newTestServer(t)

	rec := doJSON(t, rs, http.MethodPost, "/api/auth/register", "",
		RegisterRequest{Username: "newplayer", Password: "secret123"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Дубликат имени
	rec = doJSON(t, rs, http.MethodPost, "/api/auth/register", "",
		RegisterRequest{Username: "newplayer", Password: "secret123"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Короткий пароль
	rec = doJSON(t, rs, http.MethodPost, "/api/auth/register", "",
		RegisterRequest{Username: "another", Password: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Новый игрок может войти
	rec = doJSON(t, rs, http.MethodPost, "/api/auth/login", "",
		LoginRequest{Username: "newplayer", Password: "secret123"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
