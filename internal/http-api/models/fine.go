package models

import "time"

type FineStatus string

const (
	FineUnpaid FineStatus = "UNPAID"
	FinePaid   FineStatus = "PAID"
	FineWaived FineStatus = "WAIVED"
)

// Fine is a monetary obligation tied to a loan. Amounts are integer cents;
// PAID and WAIVED are terminal.
type Fine struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;index" json:"user_id"`
	LoanID      int64      `gorm:"not null;index" json:"loan_id"`
	AmountCents int64      `gorm:"not null" json:"amount_cents"`
	FineDate    time.Time  `gorm:"not null" json:"fine_date"`
	Reason      string     `gorm:"not null" json:"reason"`
	Status      FineStatus `gorm:"type:varchar(16);default:'UNPAID';not null" json:"status"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Loan *Loan `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
}

func (Fine) TableName() string {
	return "fines"
}

func (f *Fine) IsSettled() bool { return f.Status != FineUnpaid }

func (f *Fine) MarkPaid()   { f.Status = FinePaid }
func (f *Fine) MarkWaived() { f.Status = FineWaived }
