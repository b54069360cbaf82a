// Package model defines the data structures used throughout the application.
//
// Every type here is a plain, serialisable record. The `json:"..."` tags are the
// storage format: the record store writes these structs with encoding/json, so
// renaming a tag is a data migration, not a refactor.
package model

import "time"

// Profile is one entry of the user roster.
//
// WHY A ROSTER AND NOT ACCOUNTS?
// Fresh Start is a personal tracker that several people may share on one
// device. A profile is just a name plus an opaque id that namespaces that
// person's records. PINHash is optional; when set, selecting the profile
// requires the PIN.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	PINHash   string    `json:"pinHash,omitempty"`
}

// ProfileInfo is the public view of a Profile: everything except the PIN hash.
// Use it for anything that leaves the process (API responses, export files).
type ProfileInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	HasPIN    bool      `json:"hasPin,omitempty"`
}

// Info strips the PIN hash.
func (p Profile) Info() ProfileInfo {
	return ProfileInfo{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		HasPIN:    p.PINHash != "",
	}
}
