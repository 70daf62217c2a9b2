// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// CollectionRequests is the collection holding service requests.
const CollectionRequests = "requests"

// Service request plans.
const (
	PlanBasic    = "basic"
	PlanStandard = "standard"
	PlanPremium  = "premium"
)

// ServiceRequest is an inbound request for service work.
type ServiceRequest struct {
	DocID            string    `json:"-"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PreferredContact string    `json:"preferredContact"`
	Requirements     string    `json:"requirements"`
	ProjectReference string    `json:"projectReference,omitempty"`
	Plan             string    `json:"plan,omitempty"`
	Source           string    `json:"source,omitempty"`
	AcceptedTerms    Truthy    `json:"acceptedTerms,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}
