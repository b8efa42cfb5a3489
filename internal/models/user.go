package models

import "time"

// Membership partitions users into exactly one bucket.
type Membership string

const (
	MembershipPending  Membership = "pending"
	MembershipApproved Membership = "approved"
	MembershipBlocked  Membership = "blocked"
)

func (m Membership) Valid() bool {
	return m == MembershipPending || m == MembershipApproved || m == MembershipBlocked
}

type User struct {
	ID           string     `json:"id"`
	FullName     string     `json:"fullname"`
	Phone        string     `json:"phone"`
	Membership   Membership `json:"membership"`
	RegisteredAt time.Time  `json:"registeredAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
