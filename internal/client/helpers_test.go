package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// makeToken builds an unsigned-but-well-formed JWT; the client never checks signatures
func makeToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SigningString()
	require.NoError(t, err)
	return s + ".fake_signature"
}

func tokenExpiringIn(t *testing.T, d time.Duration) string {
	return makeToken(t, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(d).Unix(),
	})
}

// fakeServer is a minimal fractal server: a login endpoint plus a catch-all
// that records the Authorization header of each request it receives.
type fakeServer struct {
	*httptest.Server

	mu          sync.Mutex
	logins      int
	lastForm    map[string]string
	authHeaders []string

	loginStatus int
	loginBody   string
}

func newFakeServer(t *testing.T, loginStatus int, loginBody string) *fakeServer {
	t.Helper()
	fs := &fakeServer{loginStatus: loginStatus, loginBody: loginBody}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}

		fs.mu.Lock()
		fs.logins++
		fs.lastForm = map[string]string{
			"username":     r.PostForm.Get("username"),
			"password":     r.PostForm.Get("password"),
			"content_type": r.Header.Get("Content-Type"),
		}
		status, body := fs.loginStatus, fs.loginBody
		fs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.authHeaders = append(fs.authHeaders, r.Header.Get("Authorization"))
		fs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path, "method": r.Method})
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) loginCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.logins
}

func (fs *fakeServer) seenAuthHeaders() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.authHeaders...)
}

func (fs *fakeServer) form() map[string]string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.lastForm
}

func accessTokenBody(raw string) string {
	data, _ := json.Marshal(map[string]string{"access_token": raw, "token_type": "bearer"})
	return string(data)
}
