// Package httpapi exposes the workload tracker over REST/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/logging"
	"github.com/dmitrijs2005/workloadtracker/internal/server/auth"
	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
	"github.com/dmitrijs2005/workloadtracker/internal/server/middleware"
	"github.com/dmitrijs2005/workloadtracker/internal/server/observability"
	"github.com/dmitrijs2005/workloadtracker/internal/server/respond"
	"github.com/dmitrijs2005/workloadtracker/internal/server/services"
)

const maxBodyBytes = 1 << 20

// HealthChecker checks the database.
type HealthChecker interface {
	HealthCheck(ctx context.Context) database.Health
}

// BreakerState reports a circuit breaker guarding an optional dependency.
type BreakerState interface {
	State() gobreaker.State
}

// Options tune the router.
type Options struct {
	// ExpiryWarning is the window before token expiry in which responses
	// carry the X-Token-Expiring-Soon header.
	ExpiryWarning time.Duration

	// Now replaces time.Now for expiry warnings.
	Now func() time.Time

	// Revocation, when set, adds the revocation store's breaker state to
	// the health report. It does not affect the status code.
	Revocation BreakerState
}

type Handler struct {
	users     *services.UserService
	workloads *services.WorkloadService
	health    HealthChecker
	authn     *middleware.Authenticator
	resp      *respond.Writer
	metrics   *observability.Metrics
	logger    logging.Logger
	opts      Options
	started   time.Time
}

// NewHandler wires the handlers. metrics may be nil to disable /metrics and
// request metrics.
func NewHandler(us *services.UserService, ws *services.WorkloadService, health HealthChecker,
	authn *middleware.Authenticator, resp *respond.Writer, metrics *observability.Metrics,
	logger logging.Logger, opts Options) *Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		users:     us,
		workloads: ws,
		health:    health,
		authn:     authn,
		resp:      resp,
		metrics:   metrics,
		logger:    logger.With("module", "httpapi"),
		opts:      opts,
		started:   time.Now(),
	}
}

// identity returns the caller attached by the authentication middleware.
// Routes calling it are always mounted behind Authenticate.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

var errBadJSON = errors.New("invalid JSON payload")

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.Join(errBadJSON, err)
	}
	return nil
}

func (h *Handler) badJSON(w http.ResponseWriter, err error) {
	h.resp.Message(w, http.StatusBadRequest, "Invalid JSON payload", err)
}

// pathID parses the {id} wildcard.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		v := common.NewValidationError()
		v.Add("id", "ID must be a positive integer")
		return 0, v
	}
	return id, nil
}

// queryInt reads a positive integer query parameter; anything else is 0.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func queryID(r *http.Request, name string) int64 {
	n, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
