// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// CollectionFeeds is the collection holding feed items.
const CollectionFeeds = "feeds"

// Feed statuses.
const (
	FeedStatusPending = "pending"
	FeedStatusDone    = "done"
)

// Feed is a broadcast item assigned to one or more recipients.
type Feed struct {
	DocID      string    `json:"-"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	AssignedTo []string  `json:"assignedTo"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// IsDone returns true once the feed has been marked done.
func (f *Feed) IsDone() bool {
	return f.Status == FeedStatusDone
}
