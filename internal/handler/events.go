// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shieldhq/shield-admin/internal/model"
	"github.com/shieldhq/shield-admin/internal/store"
)

// EventsHandler serves the audit event log. Events are written by the
// logging pipeline and purged by the scheduler; this handler only reads.
type EventsHandler struct {
	records *store.Store
}

// NewEventsHandler creates the events handler.
func NewEventsHandler(records *store.Store) *EventsHandler {
	return &EventsHandler{records: records}
}

// List handles GET /events. Optional level and category query parameters
// narrow the result; both match exactly, case insensitive.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.records.List(r.Context(), model.CollectionEvents, store.OrderByCreatedDesc)
	if err != nil {
		slog.Error("listing events failed", "error", err)
		WriteInternalError(w, "Operation failed")
		return
	}

	level := strings.ToLower(r.URL.Query().Get("level"))
	category := strings.ToLower(r.URL.Query().Get("category"))

	events := make([]model.Event, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		if level != "" && strings.ToLower(doc.Field("level")) != level {
			continue
		}
		if category != "" && strings.ToLower(doc.Field("category")) != category {
			continue
		}
		var ev model.Event
		if err := doc.Decode(&ev); err != nil {
			slog.Warn("skipping undecodable event", "id", doc.ID, "error", err)
			continue
		}
		ev.DocID = doc.ID
		ev.CreatedAt = doc.CreatedAt
		events = append(events, ev)
	}

	WriteSuccess(w, events, &Meta{Total: len(events)})
}
