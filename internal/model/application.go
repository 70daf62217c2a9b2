// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// CollectionApplications is the collection holding membership applications.
const CollectionApplications = "applications"

// JoinApplication is a membership application submitted from an external
// signup form. Source identifies the form that produced it.
type JoinApplication struct {
	DocID         string    `json:"-"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	Contact       string    `json:"contact"`
	Reason        string    `json:"reason"`
	Interests     []string  `json:"interests,omitempty"`
	Source        string    `json:"source,omitempty"`
	AcceptedTerms Truthy    `json:"acceptedTerms,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
