package models

import "time"

const (
	// LoanPeriod is how long a checkout (or one renewal) lasts.
	LoanPeriod = 7 * 24 * time.Hour
	// MaxRenewals is the member renewal cap; staff may renew past it.
	MaxRenewals = 3
)

// Loan links a Copy to a borrower for a bounded period. Loans are never
// deleted; a returned loan stays as the historical record.
type Loan struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	CopyID       int64      `gorm:"not null;index" json:"copy_id"`
	UserID       string     `gorm:"type:uuid;not null;index" json:"user_id"`
	CheckoutDate time.Time  `gorm:"not null" json:"checkout_date"`
	DueDate      time.Time  `gorm:"not null" json:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`
	RenewCount   int        `gorm:"default:0;not null" json:"renew_count"`

	Copy *Copy `gorm:"foreignKey:CopyID" json:"copy,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

func (l *Loan) IsReturned() bool { return l.ReturnDate != nil }

// Renew extends the due date by one loan period from the current due date.
// The renewal cap is enforced by the caller so the staff override path can
// reuse this method.
func (l *Loan) Renew() {
	l.RenewCount++
	l.DueDate = l.DueDate.Add(LoanPeriod)
}

// MarkReturned stamps the return time. No-op guard belongs to the caller.
func (l *Loan) MarkReturned(now time.Time) {
	l.ReturnDate = &now
}

// DaysLate returns the whole days between due date and return date, zero if
// the loan is not returned or was returned on time.
func (l *Loan) DaysLate() int {
	if l.ReturnDate == nil || !l.ReturnDate.After(l.DueDate) {
		return 0
	}
	return int(l.ReturnDate.Sub(l.DueDate) / (24 * time.Hour))
}
