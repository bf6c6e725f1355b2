package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthBody struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Enabled *bool  `json:"enabled"`
	Mode    string `json:"mode"`
	Clients *int   `json:"clients"`
}

func getHealth(t *testing.T, s *Server, method string) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, "/api/health", nil))

	var body healthBody
	if rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	}
	return rec, body
}

func TestServer_Health(t *testing.T) {
	t.Run("bare server reports only liveness", func(t *testing.T) {
		rec, body := getHealth(t, New(Config{}), http.MethodGet)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "ok", body.Status)
		assert.NotEmpty(t, body.Uptime)
		assert.Nil(t, body.Enabled)
		assert.Empty(t, body.Mode)
		assert.Nil(t, body.Clients)
	})

	t.Run("with app reports pipeline state", func(t *testing.T) {
		a := newTestApp(t)
		s := New(Config{App: a})

		_, body := getHealth(t, s, http.MethodGet)
		require.NotNil(t, body.Enabled)
		assert.True(t, *body.Enabled)
		assert.Equal(t, "normal", body.Mode)
		require.NotNil(t, body.Clients)
		assert.Zero(t, *body.Clients)

		a.SetEnabled(false)
		_, body = getHealth(t, s, http.MethodGet)
		assert.False(t, *body.Enabled)
	})

	t.Run("only allows GET", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			rec, _ := getHealth(t, New(Config{}), method)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		}
	})
}

func TestServer_RoutesFollowComponents(t *testing.T) {
	a := newTestApp(t)
	st := newTestStore(t)

	tests := []struct {
		name string
		cfg  Config
		// paths answered by a handler; every other path must 404
		mounted []string
	}{
		{"bare", Config{}, nil},
		{"app only", Config{App: a}, []string{"/api/performance", "/api/overlay", "/api/plugins"}},
		{"store only", Config{Store: st}, []string{"/api/bindings", "/api/journal"}},
		{"app and store", Config{App: a, Store: st},
			[]string{"/api/performance", "/api/overlay", "/api/plugins", "/api/bindings", "/api/journal"}},
	}
	all := []string{"/api/performance", "/api/overlay", "/api/plugins", "/api/bindings", "/api/journal", "/api/stream", "/api/nonexistent"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.cfg)
			for _, path := range all {
				rec := httptest.NewRecorder()
				s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

				want := http.StatusNotFound
				for _, m := range tt.mounted {
					if m == path {
						want = http.StatusOK
					}
				}
				assert.Equal(t, want, rec.Code, path)
			}
		})
	}
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	index := "<html><body>mudra</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "overlay.js"), []byte("export {}"), 0644))

	s := New(Config{StaticDir: dir, App: newTestApp(t)})

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, index},
		{"/overlay.js", http.StatusOK, "export {}"},
		{"/missing.html", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}

	// API routes win over the file server
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/overlay", nil))
	assert.JSONEq(t, `{"open":false}`, rec.Body.String())
}

func TestServer_ListenAndServeShutsDown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Config{}).ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ListenAndServeReportsBindFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	err = New(Config{}).ListenAndServe(context.Background(), l.Addr().String())
	assert.Error(t, err)
}
