package models

import "time"

// PresenceStatus describes whether an online user can be challenged.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceInMatch PresenceStatus = "in_match"
)

// PresenceEntry is one online user as seen by other clients.
type PresenceEntry struct {
	UserID         string         `json:"userId"`
	DisplayName    string         `json:"displayName"`
	Status         PresenceStatus `json:"status"`
	ConnectedSince time.Time      `json:"connectedSince"`
}
