package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/workloadtracker/internal/client/models"
)

// fakeServer answers like the tracker for a small token vocabulary:
// "fresh" is valid, "stale" is expired, "soon" is valid but about to expire.
type fakeServer struct {
	refreshCalls atomic.Int32
	refreshOK    bool
	refreshDelay time.Duration
	logouts      atomic.Int32
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": status < 400, "message": message, "data": data,
	})
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "admin123" {
			writeEnvelope(w, http.StatusUnauthorized, "invalid username or password", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "Login successful", models.Session{
			User: &models.User{ID: 1, Username: body["username"], Role: "Admin"}, Token: "soon", ExpiresIn: 60,
		})
	})

	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		time.Sleep(f.refreshDelay)
		if !f.refreshOK {
			writeEnvelope(w, http.StatusUnauthorized, "token expired", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "Token refreshed successfully", models.Session{Token: "fresh"})
	})

	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.logouts.Add(1)
		writeEnvelope(w, http.StatusOK, "Logout successful", nil)
	})

	mux.HandleFunc("GET /api/auth/user", func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") {
		case "fresh":
		case "soon":
			w.Header().Set(headerExpiringSoon, "true")
		case "stale":
			writeEnvelope(w, http.StatusUnauthorized, "token expired", nil)
			return
		default:
			writeEnvelope(w, http.StatusUnauthorized, "invalid token", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "User retrieved successfully", models.User{ID: 1, Username: "admin", Role: "Admin"})
	})

	mux.HandleFunc("GET /api/workload/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "7" {
			writeEnvelope(w, http.StatusNotFound, "workload not found", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "ok", models.Workload{ID: 7, Nama: "Laporan", Status: "New"})
	})

	mux.HandleFunc("GET /api/workload", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "ok", models.WorkloadList{
			Workloads:  []models.Workload{{ID: 7, Nama: r.URL.Query().Get("search")}},
			Pagination: models.Page{Page: 1, Limit: 50, Total: 1, TotalPages: 1},
		})
	})

	return mux
}

func newTestClient(t *testing.T, f *fakeServer, opts ...Option) (*Client, *FileStore) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	store := NewFileStore(filepath.Join(t.TempDir(), "wt", "token"))
	c, err := New(srv.URL+"/", append([]Option{WithStore(store), WithHTTPClient(srv.Client())}, opts...)...)
	require.NoError(t, err)
	return c, store
}

func TestLogin_SavesToken(t *testing.T) {
	c, store := newTestClient(t, &fakeServer{})

	_, err := c.Login(context.Background(), "admin", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, c.Token())

	sess, err := c.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "admin", sess.User.Username)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "soon", saved)

	again, err := New("http://unused", WithStore(store))
	require.NoError(t, err)
	assert.Equal(t, "soon", again.Token(), "a new client picks the token up from the store")
}

func TestDo_NoTokenNeedsLogin(t *testing.T) {
	c, _ := newTestClient(t, &fakeServer{})
	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrReauthRequired)
}

func TestDo_ExpiringSoonRefreshes(t *testing.T) {
	f := &fakeServer{refreshOK: true}
	c, store := newTestClient(t, f, WithToken("soon"))

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", me.Username)
	assert.Equal(t, "fresh", c.Token())
	assert.EqualValues(t, 1, f.refreshCalls.Load())

	saved, _ := store.Load()
	assert.Equal(t, "fresh", saved)
}

func TestDo_ExpiringSoonRefreshFailureKeepsResult(t *testing.T) {
	f := &fakeServer{refreshOK: false}
	c, _ := newTestClient(t, f, WithToken("soon"))

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", me.Username)
	assert.Empty(t, c.Token(), "a rejected refresh forgets the token")
}

func TestDo_ExpiredRetriesOnceAfterRefresh(t *testing.T) {
	f := &fakeServer{refreshOK: true}
	c, _ := newTestClient(t, f, WithToken("stale"))

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), me.ID)
	assert.Equal(t, "fresh", c.Token())
}

func TestDo_ConcurrentExpiredShareOneRefresh(t *testing.T) {
	f := &fakeServer{refreshOK: true, refreshDelay: 100 * time.Millisecond}
	c, _ := newTestClient(t, f, WithToken("stale"))

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Me(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, f.refreshCalls.Load())
}

func TestDo_RefreshFailureIsReauthForEveryone(t *testing.T) {
	f := &fakeServer{refreshOK: false, refreshDelay: 50 * time.Millisecond}
	c, store := newTestClient(t, f, WithToken("stale"))
	require.NoError(t, store.Save("stale"))

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Me(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, ErrReauthRequired)
	}
	assert.Empty(t, c.Token())
	saved, _ := store.Load()
	assert.Empty(t, saved)
}

func TestWorkloads(t *testing.T) {
	c, _ := newTestClient(t, &fakeServer{}, WithToken("fresh"))
	ctx := context.Background()

	w, err := c.GetWorkload(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Laporan", w.Nama)

	_, err = c.GetWorkload(ctx, 8)
	require.ErrorIs(t, err, ErrNotFound)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "workload not found", apiErr.Message)

	list, err := c.ListWorkloads(ctx, models.WorkloadQuery{Search: "rapat"})
	require.NoError(t, err)
	require.Len(t, list.Workloads, 1)
	assert.Equal(t, "rapat", list.Workloads[0].Nama)
	assert.Equal(t, int64(1), list.Pagination.Total)
}

func TestLogout(t *testing.T) {
	f := &fakeServer{}
	c, store := newTestClient(t, f, WithToken("fresh"))
	require.NoError(t, store.Save("fresh"))

	require.NoError(t, c.Logout(context.Background()))
	assert.EqualValues(t, 1, f.logouts.Load())
	assert.Empty(t, c.Token())
	saved, _ := store.Load()
	assert.Empty(t, saved)

	require.NoError(t, c.Logout(context.Background()), "logging out twice is a no-op")
	assert.EqualValues(t, 1, f.logouts.Load())
}

func TestUnavailable(t *testing.T) {
	c, err := New("http://127.0.0.1:1", WithToken("fresh"), WithHTTPClient(&http.Client{Timeout: time.Second}))
	require.NoError(t, err)

	_, err = c.Me(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	err = c.Logout(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, c.Token(), "the local token is dropped even when the server is down")
}

func TestError_Message(t *testing.T) {
	e := &Error{Status: 400, Message: "Validation Error", Fields: []FieldError{{Field: "nama", Message: "Nama is required"}}}
	assert.Equal(t, "400: Validation Error: nama: Nama is required;", e.Error())
	assert.Nil(t, e.Unwrap())
}
