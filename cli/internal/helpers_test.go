package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// fakeServer speaks enough of the fractal REST API for the CLI commands
type fakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	logins   int
	password string
	requests []recordedRequest
}

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{password: "secret"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token/login", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		fs.mu.Lock()
		fs.logins++
		ok := r.PostForm.Get("password") == fs.password
		fs.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "LOGIN_BAD_CREDENTIALS"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"access_token": makeToken(t, r.PostForm.Get("username"), time.Hour),
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("GET /api/alive/", fs.record(func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusOK, map[string]any{"alive": true, "deployment_type": "testing", "version": "9.9.9"})
	}))
	mux.HandleFunc("POST /api/v1/project/", fs.record(func(w http.ResponseWriter, r *http.Request, body string) {
		var req map[string]any
		json.Unmarshal([]byte(body), &req)
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":          1,
			"name":        req["name"],
			"project_dir": req["project_dir"],
			"dataset_list": []map[string]any{
				{"id": 1, "project_id": 1, "name": req["default_dataset_name"], "meta": map[string]any{}},
			},
		})
	}))
	mux.HandleFunc("GET /api/v1/project/", fs.record(func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "name": "prj0", "project_dir": "prj_path0", "dataset_list": []map[string]any{{"id": 1, "name": "default"}}},
			{"id": 2, "name": "prj1", "project_dir": "prj_path1", "read_only": true},
		})
	}))
	mux.HandleFunc("POST /api/v1/project/{project_id}", fs.record(func(w http.ResponseWriter, r *http.Request, body string) {
		var req map[string]any
		json.Unmarshal([]byte(body), &req)
		writeJSON(w, http.StatusCreated, map[string]any{"id": 7, "project_id": 1, "name": req["name"], "meta": req["meta"]})
	}))
	mux.HandleFunc("GET /api/v1/dataset/{project_id}/{dataset_id}", fs.record(func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id": 2, "project_id": 1, "name": "raw", "type": "zarr", "meta": map[string]any{"plate": "A"},
			"read_only":     true,
			"resource_list": []map[string]any{{"id": 3, "dataset_id": 2, "path": "/data/raw", "glob_pattern": "*.tif"}},
		})
	}))
	mux.HandleFunc("POST /api/v1/project/{project_id}/{dataset_id}", fs.record(func(w http.ResponseWriter, r *http.Request, body string) {
		var req map[string]any
		json.Unmarshal([]byte(body), &req)
		writeJSON(w, http.StatusCreated, map[string]any{"id": 3, "dataset_id": 2, "path": req["path"], "glob_pattern": req["glob_pattern"]})
	}))
	mux.HandleFunc("PATCH /api/v1/project/{project_id}/{dataset_id}", fs.record(func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 2, "project_id": 1, "name": "renamed", "meta": map[string]any{}})
	}))
	mux.HandleFunc("POST /api/v1/project/apply/{project_id}/{input_dataset_id}/{workflow_id}", fs.record(func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "submitted", "job_id": 42})
	}))
	mux.HandleFunc("GET /api/v1/job/{job_id}", fs.record(func(w http.ResponseWriter, r *http.Request, body string) {
		job := map[string]any{"id": 42, "project_id": 1, "workflow_id": 3, "status": "done", "log": nil}
		if r.PathValue("job_id") == "43" {
			job = map[string]any{"id": 43, "project_id": 1, "workflow_id": 3, "status": "failed", "log": "Here are some logs"}
		}
		if r.PathValue("job_id") == "404" {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Job not found"})
			return
		}
		writeJSON(w, http.StatusOK, job)
	}))
	mux.HandleFunc("GET /api/v1/job/", fs.record(func(w http.ResponseWriter, r *http.Request, body string) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 42, "project_id": 1, "workflow_id": 3, "status": "running"},
			{"id": 43, "project_id": 1, "workflow_id": 4, "status": "done"},
			{"id": 44, "project_id": 2, "workflow_id": 5, "status": "done"},
		})
	}))

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

// record stores each request before handing it to fn
func (fs *fakeServer) record(fn func(w http.ResponseWriter, r *http.Request, body string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		fs.mu.Lock()
		fs.requests = append(fs.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   string(data),
			Auth:   r.Header.Get("Authorization"),
		})
		fs.mu.Unlock()

		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Unauthorized"})
			return
		}
		fn(w, r, string(data))
	}
}

func (fs *fakeServer) loginCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.logins
}

func (fs *fakeServer) lastRequest(t *testing.T) recordedRequest {
	t.Helper()
	fs.mu.Lock()
	defer fs.mu.Unlock()
	require.NotEmpty(t, fs.requests, "no request reached the server")
	return fs.requests[len(fs.requests)-1]
}

func (fs *fakeServer) requestCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.requests)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// makeToken builds an unsigned-but-well-formed JWT; the client never checks signatures
func makeToken(t *testing.T, email string, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "1",
		"email": email,
		"exp":   time.Now().Add(ttl).Unix(),
	})
	s, err := token.SigningString()
	require.NoError(t, err)
	return s + ".fake_signature"
}

// testEnv isolates a CLI run: its own config file and token cache, no
// ambient FRACTAL_* variables
type testEnv struct {
	dir       string
	cachePath string
}

func newTestEnv(t *testing.T, serverURL string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{dir: dir, cachePath: filepath.Join(dir, "cache", "session")}

	t.Setenv(ConfigEnvVar, filepath.Join(dir, "fractal.yaml"))
	t.Setenv(EnvServer, "")
	t.Setenv(EnvUser, "")
	t.Setenv(EnvPassword, "")
	t.Setenv(EnvCachePath, "")

	if serverURL != "" {
		config := DefaultConfig()
		ctx := config.Contexts["local"]
		ctx.Server.URL = serverURL
		ctx.Auth.Username = "test@fake-exact-lab.it"
		ctx.Session.CachePath = env.cachePath
		require.NoError(t, SaveConfig(config))
	}
	return env
}

// run executes the CLI with args and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}
