// model/loan.go
package model

import "time"

type LoanStatus string

const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanReturned LoanStatus = "RETURNED"
)

// Loan is owned and persisted solely by the loan service. UserID and BookID
// reference entities owned by the user and book services; they are validated
// remotely at issue time only, never enforced locally.
type Loan struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	BookID          string     `json:"book_id"`
	IssueDate       time.Time  `json:"issue_date"`
	DueDate         time.Time  `json:"due_date"`
	ReturnDate      *time.Time `json:"return_date,omitempty"`
	Status          LoanStatus `json:"status"`
	ExtensionsCount int        `json:"extensions_count"`
}

// BookStat is one row of the borrow-count ranking, most borrowed first.
type BookStat struct {
	BookID      string `json:"book_id"`
	BorrowCount int64  `json:"borrow_count"`
}

// UserStat is one row of the active-borrower ranking.
type UserStat struct {
	UserID        string `json:"user_id"`
	BooksBorrowed int64  `json:"books_borrowed"`
}
