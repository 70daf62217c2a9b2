// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "encoding/json"

// Truthy is a bool tolerant of the loose encodings found in imported
// records. JSON false, 0, "" and null read as false; any other value,
// including non-zero numbers and non-empty strings, reads as true. A
// record with a sloppy flag must still decode rather than drop out of
// its tab.
type Truthy bool

// UnmarshalJSON implements json.Unmarshaler.
func (t *Truthy) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = false
	case bool:
		*t = Truthy(x)
	case float64:
		*t = x != 0
	case string:
		*t = x != ""
	default:
		*t = true
	}
	return nil
}

// Bool returns the plain bool value.
func (t Truthy) Bool() bool { return bool(t) }
