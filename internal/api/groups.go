package api

import "net/http"

type groupRequest struct {
	Name string `json:"name"`
}

// ListGroups handles GET /api/v1/groups.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Groups.List(r.Context())
	if err != nil {
		writeServiceError(w, "list groups", err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// CreateGroup handles POST /api/v1/groups.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.svc.Groups.Create(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, "create group", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// RenameGroup handles PATCH /api/v1/groups/{id}.
func (h *Handler) RenameGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	var req groupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.svc.Groups.Rename(r.Context(), id, req.Name)
	if err != nil {
		writeServiceError(w, "rename group", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteGroup handles DELETE /api/v1/groups/{id}.
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	if err := h.svc.Groups.Delete(r.Context(), id); err != nil {
		writeServiceError(w, "delete group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDefaultGroup handles GET /api/v1/groups/default.
func (h *Handler) GetDefaultGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Groups.Default(r.Context())
	if err != nil {
		writeServiceError(w, "get default group", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// SetDefaultGroup handles POST /api/v1/groups/default with body {"id": n}.
func (h *Handler) SetDefaultGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int64 `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.Groups.SetDefault(r.Context(), req.ID); err != nil {
		writeServiceError(w, "set default group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
