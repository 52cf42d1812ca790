package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/workloadtracker/internal/server/middleware"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

// Routes builds the full handler tree: request id, access log and metrics
// around the mux, authentication per route.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	authed := func(fn http.HandlerFunc) http.Handler {
		return middleware.Chain(fn,
			h.authn.Authenticate,
			middleware.ExpiryWarning(h.opts.ExpiryWarning, h.opts.Now),
		)
	}
	adminOnly := func(fn http.HandlerFunc) http.Handler {
		return middleware.Chain(fn,
			h.authn.Authenticate,
			middleware.ExpiryWarning(h.opts.ExpiryWarning, h.opts.Now),
			middleware.AuthorizeRole(h.resp, models.RoleAdmin),
		)
	}

	for _, prefix := range []string{"/api/auth", "/auth"} {
		mux.HandleFunc("POST "+prefix+"/login", h.handleLogin)
		mux.Handle("POST "+prefix+"/logout", authed(h.handleLogout))
		mux.Handle("GET "+prefix+"/user", authed(h.handleCurrentUser))
		mux.Handle("POST "+prefix+"/refresh", authed(h.handleRefresh))
		mux.Handle("PUT "+prefix+"/password", authed(h.handleChangePassword))
	}

	mux.Handle("GET /api/users", adminOnly(h.handleListUsers))
	mux.Handle("POST /api/users", adminOnly(h.handleCreateUser))
	mux.Handle("GET /api/users/profile/me", authed(h.handleCurrentUser))
	mux.Handle("PUT /api/users/profile/me", authed(h.handleUpdateProfile))
	mux.Handle("GET /api/users/{id}", authed(h.handleGetUser))
	mux.Handle("PUT /api/users/{id}", authed(h.handleUpdateUser))
	mux.Handle("DELETE /api/users/{id}", adminOnly(h.handleDeleteUser))

	mux.Handle("GET /api/workload", authed(h.handleListWorkloads))
	mux.Handle("POST /api/workload", authed(h.handleCreateWorkload))
	mux.Handle("GET /api/workload/my", authed(h.handleMyWorkloads))
	mux.Handle("GET /api/workload/options", authed(h.handleWorkloadOptions))
	mux.Handle("GET /api/workload/statistics", authed(h.handleWorkloadStatistics))
	mux.Handle("GET /api/workload/{id}", authed(h.handleGetWorkload))
	mux.Handle("PUT /api/workload/{id}", authed(h.handleUpdateWorkload))
	mux.Handle("DELETE /api/workload/{id}", authed(h.handleDeleteWorkload))

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /api/health", h.handleHealth)

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		h.resp.Message(w, http.StatusNotFound, "Route not found", nil)
	})

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logging(h.logger),
	}
	if h.metrics != nil {
		mws = append(mws, middleware.Metrics(h.metrics))
	}
	return middleware.Chain(mux, mws...)
}
