package model

import "time"

// Group is a named collaboration unit addressed by its share code.
type Group struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt Timestamp `json:"created_at"`
	Members   []Member  `json:"members"`
}

type Member struct {
	DeviceID string    `json:"device_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// HasMember reports whether deviceID is in the membership set.
func (g *Group) HasMember(deviceID string) bool {
	for _, m := range g.Members {
		if m.DeviceID == deviceID {
			return true
		}
	}
	return false
}
