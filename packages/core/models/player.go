package models

import (
	"strings"
	"time"
)

type Handedness string

const (
	HandedLeft  Handedness = "L"
	HandedRight Handedness = "R"
	HandedAmbi  Handedness = "A"
)

var handedLabels = map[Handedness]string{
	HandedLeft:  "left",
	HandedRight: "right",
	HandedAmbi:  "ambi",
}

// ParseHandedness accepts the public labels left, right and ambi in any case.
func ParseHandedness(label string) (Handedness, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	for h, l := range handedLabels {
		if l == label {
			return h, true
		}
	}
	return "", false
}

func (h Handedness) Label() string {
	return handedLabels[h]
}

type Player struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FirstName    string     `gorm:"size:255;not null" json:"first_name"`
	LastName     string     `gorm:"size:255;not null" json:"last_name"`
	Handed       Handedness `gorm:"size:1;not null" json:"handed"`
	IsActive     bool       `gorm:"not null;index" json:"is_active"`
	BalanceCents int64      `gorm:"column:balance_usd_cents;not null" json:"balance_usd_cents"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Player) TableName() string {
	return "players"
}

// Name is the display name: first name, followed by the last name when present.
func (p *Player) Name() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

type CreatePlayerRequest struct {
	FirstName           string `json:"fname" form:"fname" binding:"required"`
	LastName            string `json:"lname" form:"lname"`
	Handed              string `json:"handed" form:"handed" binding:"required"`
	InitialBalanceCents *int64 `json:"initial_balance_usd_cents" form:"initial_balance_usd_cents" binding:"required"`
}

type UpdatePlayerRequest struct {
	LastName *string `json:"lname,omitempty" form:"lname"`
	Active   *bool   `json:"active,omitempty" form:"active"`
}

// PlayerFilter narrows ListPlayers. Query matches case-insensitively against
// the fields named in Fields ("fname", "lname"); empty Fields means both.
type PlayerFilter struct {
	Active *bool
	Query  string
	Fields []string
}

type DepositResult struct {
	OldBalanceCents int64 `json:"old_balance_usd_cents"`
	NewBalanceCents int64 `json:"new_balance_usd_cents"`
}
