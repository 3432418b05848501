package models

import "time"

type CopyStatus string

const (
	CopyAvailable   CopyStatus = "AVAILABLE"
	CopyCheckedOut  CopyStatus = "CHECKED_OUT"
	CopyLost        CopyStatus = "LOST"
	CopyDamaged     CopyStatus = "DAMAGED"
	CopyMaintenance CopyStatus = "MAINTENANCE" // under repair or being catalogued
	CopyReserved    CopyStatus = "RESERVED"
)

// ValidCopyStatus reports whether s is one of the known copy statuses.
func ValidCopyStatus(s CopyStatus) bool {
	switch s {
	case CopyAvailable, CopyCheckedOut, CopyLost, CopyDamaged, CopyMaintenance, CopyReserved:
		return true
	}
	return false
}

type Copy struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	TitleID   int64      `gorm:"not null;index" json:"title_id"`
	Barcode   string     `gorm:"uniqueIndex;not null" json:"barcode"`
	Status    CopyStatus `gorm:"type:varchar(16);default:'AVAILABLE';not null" json:"status"`
	Location  string     `json:"location"`
	IsVisible bool       `gorm:"default:true;not null" json:"is_visible"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Title *Title `gorm:"foreignKey:TitleID" json:"title,omitempty"`
}

func (Copy) TableName() string {
	return "copies"
}

func (c *Copy) IsAvailable() bool  { return c.Status == CopyAvailable }
func (c *Copy) IsCheckedOut() bool { return c.Status == CopyCheckedOut }
func (c *Copy) IsReserved() bool   { return c.Status == CopyReserved }

func (c *Copy) MarkAvailable()   { c.Status = CopyAvailable }
func (c *Copy) MarkCheckedOut()  { c.Status = CopyCheckedOut }
func (c *Copy) MarkLost()        { c.Status = CopyLost }
func (c *Copy) MarkDamaged()     { c.Status = CopyDamaged }
func (c *Copy) MarkMaintenance() { c.Status = CopyMaintenance }
func (c *Copy) MarkReserved()    { c.Status = CopyReserved }
