// repository/loan/loanRepository.go
package loan

import (
	"context"
	"database/sql"
	"time"

	"github.com/samdani91/Smart-Library-System/model"
)

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Insert(ctx context.Context, l model.Loan) error {
	const q = `
		INSERT INTO loans (id, user_id, book_id, issue_date, due_date, status, extensions_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.UserID, l.BookID, l.IssueDate, l.DueDate, l.Status, l.ExtensionsCount)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id string) (*model.Loan, error) {
	const q = selectLoan + ` WHERE id = $1`

	var l model.Loan
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&l.ID, &l.UserID, &l.BookID, &l.IssueDate, &l.DueDate, &l.ReturnDate,
		&l.Status, &l.ExtensionsCount)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	const q = selectLoan + ` WHERE user_id = $1 ORDER BY issue_date DESC`
	return r.list(ctx, q, userID)
}

func (r *Repo) ListOverdue(ctx context.Context, asOf time.Time) ([]model.Loan, error) {
	const q = selectLoan + ` WHERE status = 'ACTIVE' AND due_date < $1 ORDER BY due_date`
	return r.list(ctx, q, asOf)
}

// MarkReturned closes an ACTIVE loan. Returns sql.ErrNoRows when the loan is
// absent or already RETURNED, so a closed loan can never be mutated again.
func (r *Repo) MarkReturned(ctx context.Context, id string, at time.Time) error {
	const q = `
		UPDATE loans
		SET status = 'RETURNED', return_date = $2
		WHERE id = $1 AND status = 'ACTIVE'`

	res, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Extend moves the due date of an ACTIVE loan and bumps its extension count,
// returning the new count.
func (r *Repo) Extend(ctx context.Context, id string, due time.Time) (int, error) {
	const q = `
		UPDATE loans
		SET due_date = $2, extensions_count = extensions_count + 1
		WHERE id = $1 AND status = 'ACTIVE'
		RETURNING extensions_count`

	var n int
	err := r.db.QueryRowContext(ctx, q, id, due).Scan(&n)
	return n, err
}

func (r *Repo) CountActive(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM loans WHERE status = 'ACTIVE'`)
}

func (r *Repo) CountOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	return r.count(ctx,
		`SELECT count(*) FROM loans WHERE status = 'ACTIVE' AND due_date < $1`, asOf)
}

func (r *Repo) CountIssuedSince(ctx context.Context, t time.Time) (int64, error) {
	return r.count(ctx,
		`SELECT count(*) FROM loans WHERE status = 'ACTIVE' AND issue_date >= $1`, t)
}

func (r *Repo) CountReturnedSince(ctx context.Context, t time.Time) (int64, error) {
	return r.count(ctx,
		`SELECT count(*) FROM loans WHERE return_date >= $1`, t)
}

// BookStats ranks books by total borrow count, most borrowed first.
func (r *Repo) BookStats(ctx context.Context) ([]model.BookStat, error) {
	const q = `
		SELECT book_id, count(*) AS borrow_count
		FROM loans
		GROUP BY book_id
		ORDER BY borrow_count DESC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.BookStat
	for rows.Next() {
		var s model.BookStat
		if err := rows.Scan(&s.BookID, &s.BorrowCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// ActiveUserStats ranks users by currently active loans, busiest first.
func (r *Repo) ActiveUserStats(ctx context.Context) ([]model.UserStat, error) {
	const q = `
		SELECT user_id, count(*) AS books_borrowed
		FROM loans
		WHERE status = 'ACTIVE'
		GROUP BY user_id
		ORDER BY books_borrowed DESC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.UserStat
	for rows.Next() {
		var s model.UserStat
		if err := rows.Scan(&s.UserID, &s.BooksBorrowed); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

const selectLoan = `
	SELECT id, user_id, book_id, issue_date, due_date, return_date, status, extensions_count
	FROM loans`

func (r *Repo) count(ctx context.Context, q string, args ...any) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]model.Loan, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []model.Loan
	for rows.Next() {
		var l model.Loan
		if err := rows.Scan(&l.ID, &l.UserID, &l.BookID, &l.IssueDate, &l.DueDate,
			&l.ReturnDate, &l.Status, &l.ExtensionsCount); err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}
