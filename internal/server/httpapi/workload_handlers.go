package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/workloadtracker/internal/server/models"
	"github.com/dmitrijs2005/workloadtracker/internal/server/validation"
)

type workloadList struct {
	Workloads  []models.Workload `json:"workloads"`
	Pagination models.Page       `json:"pagination"`
}

func workloadFilter(r *http.Request) models.WorkloadFilter {
	q := r.URL.Query()
	return models.WorkloadFilter{
		UserID: queryID(r, "user_id"),
		Status: models.Status(q.Get("status")),
		Type:   q.Get("type"),
		Search: q.Get("search"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	}
}

func (h *Handler) handleListWorkloads(w http.ResponseWriter, r *http.Request) {
	items, page, err := h.workloads.List(r.Context(), identity(r), workloadFilter(r))
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "Workloads retrieved successfully", workloadList{Workloads: items, Pagination: page})
}

func (h *Handler) handleMyWorkloads(w http.ResponseWriter, r *http.Request) {
	items, page, err := h.workloads.Mine(r.Context(), identity(r), workloadFilter(r))
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "My workloads retrieved successfully", workloadList{Workloads: items, Pagination: page})
}

func (h *Handler) handleGetWorkload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	wl, err := h.workloads.Get(r.Context(), identity(r), id)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "Workload retrieved successfully", wl)
}

func (h *Handler) handleCreateWorkload(w http.ResponseWriter, r *http.Request) {
	var in validation.WorkloadInput
	if err := decodeJSON(r, &in); err != nil {
		h.badJSON(w, err)
		return
	}
	patch, err := validation.NewWorkload(in)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	wl, err := h.workloads.Create(r.Context(), identity(r), patch)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusCreated, "Workload created successfully", wl)
}

func (h *Handler) handleUpdateWorkload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	var in validation.WorkloadInput
	if err := decodeJSON(r, &in); err != nil {
		h.badJSON(w, err)
		return
	}
	patch, err := validation.WorkloadUpdate(in)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	wl, err := h.workloads.Update(r.Context(), identity(r), id, patch)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "Workload updated successfully", wl)
}

func (h *Handler) handleDeleteWorkload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	if err := h.workloads.Delete(r.Context(), identity(r), id); err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "Workload deleted successfully", nil)
}

func (h *Handler) handleWorkloadOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.workloads.Options(r.Context(), identity(r))
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "Workload options retrieved successfully", opts)
}

func (h *Handler) handleWorkloadStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.workloads.Statistics(r.Context(), identity(r), queryID(r, "user_id"))
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}
	h.resp.OK(w, http.StatusOK, "Workload statistics retrieved successfully", stats)
}
