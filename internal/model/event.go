// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// CollectionEvents is the collection holding audit events.
const CollectionEvents = "events"

// Event levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories.
const (
	EventCategoryAuth   = "auth"
	EventCategoryRecord = "record"
	EventCategoryUser   = "user"
	EventCategorySystem = "system"
)

// Event represents an audit log entry.
type Event struct {
	DocID     string    `json:"-"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata,omitempty"` // JSON string
	CreatedAt time.Time `json:"createdAt"`
}
