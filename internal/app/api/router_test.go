package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jbkun069/AnimeChatCraft/internal/app/api"
	"github.com/jbkun069/AnimeChatCraft/internal/app/chat"
	"github.com/jbkun069/AnimeChatCraft/pkg/apperr"
	"github.com/jbkun069/AnimeChatCraft/pkg/character"
	"github.com/jbkun069/AnimeChatCraft/pkg/charstore"
	"github.com/jbkun069/AnimeChatCraft/pkg/prompt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (p *mockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	args := p.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type failingStore struct{}

func (failingStore) Save(ctx context.Context, c *character.Character) (string, error) {
	return "", apperr.Wrap(apperr.CodeStoreWrite, errors.New("no space left on device /secret/path"), "failed to write character")
}

func (failingStore) Load(ctx context.Context, name string) (*character.Character, error) {
	return nil, apperr.Wrap(apperr.CodeStoreRead, errors.New("permission denied /secret/path"), "failed to read character")
}

func (failingStore) List(ctx context.Context) ([]string, error) {
	return nil, apperr.Wrap(apperr.CodeStoreRead, errors.New("permission denied /secret/path"), "failed to read character dir")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

type testEnv struct {
	srv      *httptest.Server
	dir      string
	provider *mockProvider

	appLog    *syncBuffer
	serverLog *syncBuffer
}

func newTestEnv(t *testing.T, store charstore.Store) *testEnv {
	return newTestEnvWithConfig(t, store, &api.Config{})
}

func newTestEnvWithConfig(t *testing.T, store charstore.Store, cfg *api.Config) *testEnv {
	dir := filepath.Join(t.TempDir(), "characters")
	if store == nil {
		fileStore, err := charstore.NewFileStore(dir)
		require.NoError(t, err)
		store = fileStore
	}

	appLog := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(appLog, &slog.HandlerOptions{Level: slog.LevelDebug}))

	provider := &mockProvider{}
	chatSvc := chat.New(logger, prompt.New(nil), provider)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total"}))

	a := api.NewAPI(cfg, logger, store, chatSvc, reg)

	serverLog := &syncBuffer{}
	srv := httptest.NewUnstartedServer(a.NewRouter())
	srv.Config.ErrorLog = log.New(serverLog, "", 0)
	srv.Start()
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:       srv,
		dir:       dir,
		provider:  provider,
		appLog:    appLog,
		serverLog: serverLog,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, []byte) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func decode(t *testing.T, data []byte) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out), string(data))

	return out
}

const aikoJSON = `{"name":"Aiko","gender":"female","traits":["cheerful","brave"],"speech_style":"energetic","anime_setting":"school","catchphrase":"Ganbatte!"}`

func TestCharacterLifecycle(t *testing.T) {
	assert := require.New(t)
	env := newTestEnv(t, nil)

	status, body := env.do(t, http.MethodGet, "/list_characters", "")
	assert.Equal(http.StatusOK, status)
	assert.JSONEq(`[]`, string(body))

	status, body = env.do(t, http.MethodPost, "/save_character", aikoJSON)
	assert.Equal(http.StatusOK, status)
	assert.JSONEq(`{"message":"Character 'Aiko' saved!","key":"aiko"}`, string(body))

	status, body = env.do(t, http.MethodGet, "/load_character/Aiko", "")
	assert.Equal(http.StatusOK, status)
	assert.JSONEq(aikoJSON, string(body))

	status, body = env.do(t, http.MethodGet, "/list_characters", "")
	assert.Equal(http.StatusOK, status)
	assert.JSONEq(`["aiko"]`, string(body))
}

func TestSaveCharacterValidation(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t, nil)

	for _, body := range []string{
		`{"name":"Aiko"}`,
		`{"name":"Aiko","gender":"female","traits":[],"speech_style":"s","anime_setting":"a","catchphrase":"c"}`,
		`{}`,
		`not json`,
	} {
		status, data := env.do(t, http.MethodPost, "/save_character", body)
		assert.Equal(http.StatusBadRequest, status, body)
		assert.Equal(map[string]any{"message": "All fields are required", "error": "validation"}, decode(t, data), body)
	}

	entries, err := os.ReadDir(env.dir)
	assert.NoError(err)
	assert.Empty(entries)
}

func TestSaveCharacterTraversal(t *testing.T) {
	assert := require.New(t)
	env := newTestEnv(t, nil)

	body := strings.Replace(aikoJSON, `"name":"Aiko"`, `"name":"../../evil"`, 1)

	status, data := env.do(t, http.MethodPost, "/save_character", body)
	assert.Equal(http.StatusOK, status)
	assert.Equal("evil", decode(t, data)["key"])

	assert.FileExists(filepath.Join(env.dir, "evil.json"))
	assert.NoFileExists(filepath.Join(filepath.Dir(env.dir), "evil.json"))

	status, data = env.do(t, http.MethodGet, "/load_character/..%2F..%2Fevil", "")
	assert.Equal(http.StatusOK, status, string(data))
	assert.Equal("../../evil", decode(t, data)["name"])
}

func TestLoadCharacterNotFound(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t, nil)

	status, data := env.do(t, http.MethodGet, "/load_character/missing", "")
	assert.Equal(http.StatusNotFound, status)
	assert.Equal(map[string]any{"message": "Character 'missing' not found.", "error": "not_found"}, decode(t, data))

	status, data = env.do(t, http.MethodGet, "/load_character/Zero%20Two", "")
	assert.Equal(http.StatusNotFound, status)
	assert.Equal("Character 'Zero Two' not found.", decode(t, data)["message"])
}

func TestLoadCharacterDotNames(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t, nil)

	for _, path := range []string{"/load_character/%2E%2E", "/load_character/%2E"} {
		status, data := env.do(t, http.MethodGet, path, "")
		assert.Equal(http.StatusBadRequest, status, path)
		assert.Equal("validation", decode(t, data)["error"], path)
	}
}

func TestStoreFailuresDoNotLeak(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t, failingStore{})

	for _, tc := range []struct {
		method, path, body, msg, code string
	}{
		{http.MethodPost, "/save_character", aikoJSON, "Error saving character.", "store_write"},
		{http.MethodGet, "/load_character/aiko", "", "Error loading character.", "store_read"},
		{http.MethodGet, "/list_characters", "", "Error listing characters.", "store_read"},
	} {
		status, data := env.do(t, tc.method, tc.path, tc.body)
		assert.Equal(http.StatusInternalServerError, status, tc.path)
		assert.Equal(map[string]any{"message": tc.msg, "error": tc.code}, decode(t, data), tc.path)
		assert.NotContains(string(data), "/secret/path")
	}
}

func TestChat(t *testing.T) {
	assert := require.New(t)
	env := newTestEnv(t, nil)

	env.provider.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "You are Aiko, a female anime character.") &&
			strings.Contains(p, "Traits: cheerful, brave\n") &&
			strings.HasSuffix(p, "\n\nUser: Hello!\nCharacter:")
	})).Return("Character: Ganbatte!", nil)

	status, data := env.do(t, http.MethodPost, "/chat", `{"message":"Hello!","character":`+aikoJSON+`}`)
	assert.Equal(http.StatusOK, status)
	assert.JSONEq(`{"reply":"Ganbatte!"}`, string(data))

	env.provider.AssertExpectations(t)
}

func TestChatErrors(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t, nil)

	for _, body := range []string{
		`{"message":"","character":` + aikoJSON + `}`,
		`{"message":"hi"}`,
		`{"message":"hi","character":{}}`,
		`[`,
	} {
		status, data := env.do(t, http.MethodPost, "/chat", body)
		assert.Equal(http.StatusBadRequest, status, body)
		assert.Equal(map[string]any{"reply": "Missing message or character data.", "error": "validation"}, decode(t, data), body)
	}

	env.provider.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded for key AIza-secret"))

	status, data := env.do(t, http.MethodPost, "/chat", `{"message":"hi","character":`+aikoJSON+`}`)
	assert.Equal(http.StatusServiceUnavailable, status)
	assert.Equal(map[string]any{"reply": "AI service unavailable. Please try again later.", "error": "provider"}, decode(t, data))
	assert.NotContains(string(data), "AIza-secret")
}

func TestStaticAndMetrics(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t, nil)

	status, data := env.do(t, http.MethodGet, "/", "")
	assert.Equal(http.StatusOK, status)
	assert.Contains(string(data), "<title>AnimeChatCraft</title>")
	assert.Contains(string(data), `id="theme-select"`)

	status, data = env.do(t, http.MethodGet, "/static/script.js", "")
	assert.Equal(http.StatusOK, status)
	assert.Contains(string(data), "/save_character")
	assert.Contains(string(data), "localStorage.setItem(themeKey")

	status, data = env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(http.StatusOK, status)
	assert.Contains(string(data), "test_total")
}

func TestRequestLogging(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t, nil)

	status, _ := env.do(t, http.MethodGet, "/list_characters", "")
	assert.Equal(http.StatusOK, status)
	assert.Contains(env.appLog.String(), "/list_characters")

	env.provider.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("boom"))

	status, _ = env.do(t, http.MethodPost, "/chat", `{"message":"hi","character":`+aikoJSON+`}`)
	assert.Equal(http.StatusServiceUnavailable, status)

	var failure map[string]any
	for _, line := range strings.Split(strings.TrimSpace(env.appLog.String()), "\n") {
		var record map[string]any
		if json.Unmarshal([]byte(line), &record) == nil && record["msg"] == "provider call failed" {
			failure = record
		}
	}

	if assert.NotNil(failure) {
		assert.NotEmpty(failure["request_id"])
		assert.Equal("Aiko", failure["character"])
	}
}

func TestChatTimeout(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnvWithConfig(t, nil, &api.Config{Timeout: 20 * time.Millisecond})

	env.provider.On("Generate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return("", context.DeadlineExceeded)

	status, data := env.do(t, http.MethodPost, "/chat", `{"message":"hi","character":`+aikoJSON+`}`)
	assert.Equal(http.StatusServiceUnavailable, status)
	assert.Equal(map[string]any{"reply": "AI service unavailable. Please try again later.", "error": "provider"}, decode(t, data))
	assert.NotContains(env.serverLog.String(), "superfluous")

	env.provider.AssertExpectations(t)
}
