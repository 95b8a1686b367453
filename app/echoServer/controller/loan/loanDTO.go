package loan

import "time"

type IssueLoanReq struct {
	UserID  string    `json:"user_id" validate:"required"`
	BookID  string    `json:"book_id" validate:"required"`
	DueDate time.Time `json:"due_date" validate:"required"`
}

type ReturnLoanReq struct {
	LoanID string `json:"loan_id" validate:"required"`
}

type ExtendLoanReq struct {
	ExtensionDays int `json:"extension_days" validate:"required,gt=0"`
}
