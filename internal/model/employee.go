// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// CollectionEmployees is the collection holding personnel records.
const CollectionEmployees = "employees"

// Employee is a personnel record.
type Employee struct {
	DocID     string    `json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Position  string    `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}
