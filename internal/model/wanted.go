// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// CollectionWanteds is the collection holding watch-list entries.
const CollectionWanteds = "wanteds"

// WantedEntry is a single watch-list entry.
type WantedEntry struct {
	DocID     string    `json:"-"`
	Name      string    `json:"name"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}
