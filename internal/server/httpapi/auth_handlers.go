package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/workloadtracker/internal/server/auth"
	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
	"github.com/dmitrijs2005/workloadtracker/internal/server/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func newSessionResponse(s *services.Session) sessionResponse {
	return sessionResponse{
		User:      s.User,
		Token:     s.Token.Value,
		ExpiresIn: int64(s.Token.ExpiresIn.Seconds()),
		ExpiresAt: s.Token.ExpiresAt.UTC(),
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	// an empty body is a login without credentials, which Login rejects
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.badJSON(w, err)
		return
	}

	sess, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "Login successful", newSessionResponse(sess))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.users.Logout(r.Context(), claims); err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "Logout successful", nil)
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Me(r.Context(), identity(r))
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "User retrieved successfully", user)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess, err := h.users.Refresh(r.Context(), identity(r))
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "Token refreshed successfully", newSessionResponse(sess))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badJSON(w, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), identity(r), req.CurrentPassword, req.NewPassword); err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "Password changed successfully", nil)
}
