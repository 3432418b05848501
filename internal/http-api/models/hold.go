package models

import "time"

type HoldStatus string

const (
	HoldQueued    HoldStatus = "QUEUED"
	HoldReady     HoldStatus = "READY"
	HoldPickedUp  HoldStatus = "PICKED_UP"
	HoldCancelled HoldStatus = "CANCELLED"
	HoldExpired   HoldStatus = "EXPIRED"
)

// PickupWindow is how long a READY hold waits before it expires.
const PickupWindow = 3 * 24 * time.Hour

// Hold is a reservation queued against a Title. Among QUEUED/READY holds for
// one title, positions are a contiguous run starting at 1.
type Hold struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string     `gorm:"type:uuid;not null;index" json:"user_id"`
	TitleID      int64      `gorm:"not null;index" json:"title_id"`
	CopyID       *int64     `gorm:"index" json:"copy_id,omitempty"`
	Status       HoldStatus `gorm:"type:varchar(16);default:'QUEUED';not null" json:"status"`
	PlacedAt     time.Time  `gorm:"not null" json:"placed_at"`
	ReadyAt      *time.Time `json:"ready_at,omitempty"`
	PickupExpire *time.Time `json:"pickup_expire,omitempty"`
	Position     int        `gorm:"not null" json:"position"`

	Title *Title `gorm:"foreignKey:TitleID" json:"title,omitempty"`
	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Hold) TableName() string {
	return "holds"
}

// IsActive reports whether the hold still occupies a queue position.
func (h *Hold) IsActive() bool {
	return h.Status == HoldQueued || h.Status == HoldReady
}

// MarkReady assigns a copy and opens the pickup window.
func (h *Hold) MarkReady(copyID int64, now time.Time) {
	h.CopyID = &copyID
	h.Status = HoldReady
	h.ReadyAt = &now
	expire := now.Add(PickupWindow)
	h.PickupExpire = &expire
}

func (h *Hold) MarkPickedUp()  { h.Status = HoldPickedUp }
func (h *Hold) MarkCancelled() { h.Status = HoldCancelled }
func (h *Hold) MarkExpired()   { h.Status = HoldExpired }
