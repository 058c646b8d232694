// Package domain contains entities without transport logic, just meta-data
package domain

import "errors"

const MaxDisplayNameLen = 64

var ErrDisplayNameTooLong = errors.New("display name too long")

// DisplayName is what a participant shows in a room roster.
// Names are not unique; two sessions may share one.
type DisplayName string

// ParseDisplayName accepts an empty name: a join without a user still
// registers, with an empty roster entry.
func ParseDisplayName(raw string) (DisplayName, error) {
	if len(raw) > MaxDisplayNameLen {
		return "", ErrDisplayNameTooLong
	}
	return DisplayName(raw), nil
}
