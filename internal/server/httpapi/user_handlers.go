package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
)

type userList struct {
	Users      []models.User `json:"users"`
	Pagination models.Page   `json:"pagination"`
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, page, err := h.users.List(r.Context(), identity(r), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "Users retrieved successfully", userList{Users: users, Pagination: page})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	user, err := h.users.Get(r.Context(), identity(r), id)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "User retrieved successfully", user)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in models.UserPatch
	if err := decodeJSON(r, &in); err != nil {
		h.badJSON(w, err)
		return
	}
	user, err := h.users.Create(r.Context(), identity(r), in)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusCreated, "User created successfully", user)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.updateUser(w, r, id, "User updated successfully")
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	h.updateUser(w, r, identity(r).ID, "Profile updated successfully")
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request, id int64, message string) {
	var in models.UserPatch
	if err := decodeJSON(r, &in); err != nil {
		h.badJSON(w, err)
		return
	}
	user, err := h.users.Update(r.Context(), identity(r), id, in)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, message, user)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	force := r.URL.Query().Get("force") == "true"
	if err := h.users.Delete(r.Context(), identity(r), id, force); err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "User deleted successfully", nil)
}
