// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shieldhq/shield-admin/internal/query"
	"github.com/shieldhq/shield-admin/internal/service"
)

// RecordsHandler serves the per-tab record listings and mutations. Every
// list reads the tab's live view; the query parameters q, source,
// accepted, plan and sort map onto the engine's query state. Filters the
// tab has no accessor for are ignored.
type RecordsHandler struct {
	Feeds        *service.FeedService
	Wanteds      *service.WantedService
	Employees    *service.EmployeeService
	Applications *service.ApplicationService
	Requests     *service.RequestService
	Users        *service.UserService
}

// parseQueryState maps the request's query parameters onto the engine's
// query state. Absent parameters keep the zero defaults: empty search,
// every filter on "any", newest first.
func parseQueryState(r *http.Request) query.State {
	q := r.URL.Query()
	return query.State{
		Search:   q.Get("q"),
		Source:   q.Get("source"),
		Accepted: query.ParseTriState(q.Get("accepted")),
		Plan:     q.Get("plan"),
		Sort:     query.ParseSortKey(q.Get("sort")),
	}
}

// ListFeeds handles GET /feeds.
func (h *RecordsHandler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	view := h.Feeds.View(parseQueryState(r))
	WriteSuccess(w, view, &Meta{Total: len(view)})
}

// createFeedRequest is the POST /feeds payload.
type createFeedRequest struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	AssignedTo []string `json:"assignedTo"`
}

// CreateFeed handles POST /feeds.
func (h *RecordsHandler) CreateFeed(w http.ResponseWriter, r *http.Request) {
	var req createFeedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.Feeds.Create(r.Context(), req.Title, req.Body, req.AssignedTo)
	if err != nil {
		writeServiceError(w, "creating feed", err)
		return
	}
	WriteCreated(w, map[string]string{"id": id})
}

// MarkFeedDone handles POST /feeds/{id}/done.
func (h *RecordsHandler) MarkFeedDone(w http.ResponseWriter, r *http.Request) {
	if err := h.Feeds.MarkDone(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "marking feed done", err)
		return
	}
	WriteSuccess(w, nil, nil)
}

// DeleteFeed handles DELETE /feeds/{id}.
func (h *RecordsHandler) DeleteFeed(w http.ResponseWriter, r *http.Request) {
	if err := h.Feeds.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "deleting feed", err)
		return
	}
	WriteSuccess(w, nil, nil)
}

// ListWanteds handles GET /wanteds.
func (h *RecordsHandler) ListWanteds(w http.ResponseWriter, r *http.Request) {
	view := h.Wanteds.View(parseQueryState(r))
	WriteSuccess(w, view, &Meta{Total: len(view)})
}

// wantedRequest is the POST /wanteds and PUT /wanteds/{id} payload.
type wantedRequest struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// CreateWanted handles POST /wanteds.
func (h *RecordsHandler) CreateWanted(w http.ResponseWriter, r *http.Request) {
	var req wantedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.Wanteds.Add(r.Context(), req.Name, req.Reason)
	if err != nil {
		writeServiceError(w, "adding wanted entry", err)
		return
	}
	WriteCreated(w, map[string]string{"id": id})
}

// UpdateWanted handles PUT /wanteds/{id}.
func (h *RecordsHandler) UpdateWanted(w http.ResponseWriter, r *http.Request) {
	var req wantedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Wanteds.Edit(r.Context(), chi.URLParam(r, "id"), req.Name, req.Reason); err != nil {
		writeServiceError(w, "editing wanted entry", err)
		return
	}
	WriteSuccess(w, nil, nil)
}

// DeleteWanted handles DELETE /wanteds/{id}.
func (h *RecordsHandler) DeleteWanted(w http.ResponseWriter, r *http.Request) {
	if err := h.Wanteds.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "deleting wanted entry", err)
		return
	}
	WriteSuccess(w, nil, nil)
}

// ListEmployees handles GET /employees.
func (h *RecordsHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	view := h.Employees.View(parseQueryState(r))
	WriteSuccess(w, view, &Meta{Total: len(view)})
}

// employeeRequest is the POST /employees and PUT /employees/{id} payload.
type employeeRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Position string `json:"position"`
}

// CreateEmployee handles POST /employees.
func (h *RecordsHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.Employees.Add(r.Context(), req.Name, req.Email, req.Position)
	if err != nil {
		writeServiceError(w, "adding employee", err)
		return
	}
	WriteCreated(w, map[string]string{"id": id})
}

// UpdateEmployee handles PUT /employees/{id}.
func (h *RecordsHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Employees.Edit(r.Context(), chi.URLParam(r, "id"), req.Name, req.Email, req.Position); err != nil {
		writeServiceError(w, "editing employee", err)
		return
	}
	WriteSuccess(w, nil, nil)
}

// DeleteEmployee handles DELETE /employees/{id}.
func (h *RecordsHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Employees.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "deleting employee", err)
		return
	}
	WriteSuccess(w, nil, nil)
}

// ListApplications handles GET /applications.
func (h *RecordsHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	view := h.Applications.View(parseQueryState(r))
	WriteSuccess(w, view, &Meta{Total: len(view)})
}

// DeleteApplication handles DELETE /applications/{id}.
func (h *RecordsHandler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := h.Applications.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "deleting application", err)
		return
	}
	WriteSuccess(w, nil, nil)
}

// ListRequests handles GET /requests.
func (h *RecordsHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	view := h.Requests.View(parseQueryState(r))
	WriteSuccess(w, view, &Meta{Total: len(view)})
}

// DeleteRequest handles DELETE /requests/{id}.
func (h *RecordsHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.Requests.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "deleting request", err)
		return
	}
	WriteSuccess(w, nil, nil)
}

// ListUsers handles GET /users.
func (h *RecordsHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	view := h.Users.View(parseQueryState(r))
	WriteSuccess(w, view, &Meta{Total: len(view)})
}

// userRequest is the POST /users payload.
type userRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateUser handles POST /users.
func (h *RecordsHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.Users.Add(r.Context(), req.Email, req.Role)
	if err != nil {
		writeServiceError(w, "adding user", err)
		return
	}
	WriteCreated(w, map[string]string{"id": id})
}

// roleRequest is the PUT /users/{id}/role payload.
type roleRequest struct {
	Role string `json:"role"`
}

// SetUserRole handles PUT /users/{id}/role.
func (h *RecordsHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Users.SetRole(r.Context(), chi.URLParam(r, "id"), req.Role); err != nil {
		writeServiceError(w, "setting user role", err)
		return
	}
	WriteSuccess(w, nil, nil)
}

// DeleteUser handles DELETE /users/{id}.
func (h *RecordsHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "deleting user", err)
		return
	}
	WriteSuccess(w, nil, nil)
}
