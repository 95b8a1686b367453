package loansvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/samdani91/Smart-Library-System/model"
	"github.com/samdani91/Smart-Library-System/remote"
)

// error codes used by controllers

type ErrCode string

const (
	ErrUserNotFound    ErrCode = "USER_NOT_FOUND"
	ErrBookNotFound    ErrCode = "BOOK_NOT_FOUND"
	ErrLoanNotFound    ErrCode = "LOAN_NOT_FOUND"
	ErrNoCopies        ErrCode = "NO_COPIES"
	ErrAlreadyReturned ErrCode = "ALREADY_RETURNED"
	ErrUnavailable     ErrCode = "DEPENDENCY_UNAVAILABLE"
)

type codedError struct {
	code  ErrCode
	cause error
}

func (e codedError) Error() string {
	if e.cause != nil {
		return string(e.code) + ": " + e.cause.Error()
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }
func (e codedError) Unwrap() error { return e.cause }

func makeErr(c ErrCode) error            { return codedError{code: c} }
func wrapErr(c ErrCode, err error) error { return codedError{code: c, cause: err} }

// Code extracts the error code, or "" for uncoded (internal) errors.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Users is the slice of the user service this workflow needs.
type Users interface {
	GetUser(ctx context.Context, id string) (*remote.User, error)
}

// Books is the slice of the book service this workflow needs.
type Books interface {
	GetBook(ctx context.Context, id string) (*remote.Book, error)
	AdjustAvailability(ctx context.Context, id, operation string) (*remote.Availability, error)
}

// Store persists loans locally. The loan service is the only owner of loan
// records.
type Store interface {
	Insert(ctx context.Context, l model.Loan) error
	GetByID(ctx context.Context, id string) (*model.Loan, error)
	ListByUser(ctx context.Context, userID string) ([]model.Loan, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]model.Loan, error)
	MarkReturned(ctx context.Context, id string, at time.Time) error
	Extend(ctx context.Context, id string, due time.Time) (int, error)
	BookStats(ctx context.Context) ([]model.BookStat, error)
	ActiveUserStats(ctx context.Context) ([]model.UserStat, error)
}

// dto

// Extended is the result of extending a loan; the pre-extension due date is
// kept for the response.
type Extended struct {
	Loan            model.Loan
	OriginalDueDate time.Time
}

// BookRef is the enriched book summary attached to loan reads.
type BookRef struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// UserRef is the enriched user summary attached to loan reads.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LoanWithBook struct {
	Loan model.Loan
	Book BookRef
}

type LoanDetail struct {
	Loan model.Loan
	User UserRef
	Book BookRef
}

type OverdueLoan struct {
	Loan        model.Loan
	User        UserRef
	Book        BookRef
	DaysOverdue int64
}

type Service interface {
	// Issue validates the user and book remotely, takes one available copy
	// and persists a new ACTIVE loan.
	Issue(ctx context.Context, userID, bookID string, due time.Time) (*model.Loan, error)

	// Return closes an ACTIVE loan and gives the copy back to the book
	// service.
	Return(ctx context.Context, loanID string) (*model.Loan, error)

	// Extend pushes the due date by whole calendar days. Local only.
	Extend(ctx context.Context, loanID string, days int) (*Extended, error)

	LoanByID(ctx context.Context, loanID string) (*LoanDetail, error)
	LoansByUser(ctx context.Context, userID string) ([]LoanWithBook, error)
	Overdue(ctx context.Context) ([]OverdueLoan, error)

	// BookStats and ActiveUserStats expose the local rankings consumed by
	// the book and user services.
	BookStats(ctx context.Context) ([]model.BookStat, error)
	ActiveUserStats(ctx context.Context) ([]model.UserStat, error)
}

// ----- Service implementation -----

type service struct {
	store Store
	users Users
	books Books
}

func New(store Store, users Users, books Books) Service {
	return &service{store: store, users: users, books: books}
}

// Issue sequences the issue workflow. The availability decrement and the
// local insert are deliberately not atomic: if the insert fails after the
// decrement succeeded, the copy stays taken and no compensating increment is
// issued.
func (s *service) Issue(ctx context.Context, userID, bookID string, due time.Time) (*model.Loan, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if remote.IsNotFound(err) {
			return nil, wrapErr(ErrUserNotFound, err)
		}
		return nil, mapRemote(err)
	}

	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		if remote.IsNotFound(err) {
			return nil, wrapErr(ErrBookNotFound, err)
		}
		return nil, mapRemote(err)
	}

	if book.AvailableCopies <= 0 {
		return nil, makeErr(ErrNoCopies)
	}

	if _, err := s.books.AdjustAvailability(ctx, bookID, remote.OpDecrement); err != nil {
		switch {
		case remote.IsValidation(err):
			// Lost the race for the last copy.
			return nil, wrapErr(ErrNoCopies, err)
		case remote.IsNotFound(err):
			return nil, wrapErr(ErrBookNotFound, err)
		default:
			return nil, mapRemote(err)
		}
	}

	loan := model.Loan{
		ID:        uuid.NewString(),
		UserID:    userID,
		BookID:    bookID,
		IssueDate: time.Now().UTC(),
		DueDate:   due,
		Status:    model.LoanActive,
	}

	if err := s.store.Insert(ctx, loan); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (s *service) Return(ctx context.Context, loanID string) (*model.Loan, error) {
	loan, err := s.store.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrLoanNotFound)
		}
		return nil, err
	}
	if loan.Status == model.LoanReturned {
		return nil, makeErr(ErrAlreadyReturned)
	}

	if _, err := s.books.AdjustAvailability(ctx, loan.BookID, remote.OpIncrement); err != nil {
		if remote.IsNotFound(err) {
			return nil, wrapErr(ErrBookNotFound, err)
		}
		return nil, mapRemote(err)
	}

	at := time.Now().UTC()
	if err := s.store.MarkReturned(ctx, loanID, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Raced with another return between lookup and update.
			return nil, makeErr(ErrAlreadyReturned)
		}
		return nil, err
	}

	loan.ReturnDate = &at
	loan.Status = model.LoanReturned

	return loan, nil
}

func (s *service) Extend(ctx context.Context, loanID string, days int) (*Extended, error) {
	loan, err := s.store.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrLoanNotFound)
		}
		return nil, err
	}
	if loan.Status == model.LoanReturned {
		return nil, makeErr(ErrAlreadyReturned)
	}

	original := loan.DueDate
	// Whole-day calendar arithmetic, not a fixed 24h offset.
	newDue := loan.DueDate.AddDate(0, 0, days)

	count, err := s.store.Extend(ctx, loanID, newDue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrAlreadyReturned)
		}
		return nil, err
	}

	loan.DueDate = newDue
	loan.ExtensionsCount = count

	return &Extended{Loan: *loan, OriginalDueDate: original}, nil
}

func (s *service) LoanByID(ctx context.Context, loanID string) (*LoanDetail, error) {
	loan, err := s.store.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrLoanNotFound)
		}
		return nil, err
	}

	user, book, err := s.fetchRefs(ctx, loan.UserID, loan.BookID)
	if err != nil {
		return nil, err
	}

	return &LoanDetail{Loan: *loan, User: *user, Book: *book}, nil
}

func (s *service) LoansByUser(ctx context.Context, userID string) ([]LoanWithBook, error) {
	loans, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]LoanWithBook, 0, len(loans))
	for _, l := range loans {
		book, err := s.books.GetBook(ctx, l.BookID)
		if err != nil {
			return nil, mapRemote(err)
		}
		out = append(out, LoanWithBook{
			Loan: l,
			Book: BookRef{ID: book.ID, Title: book.Title, Author: book.Author},
		})
	}
	return out, nil
}

func (s *service) Overdue(ctx context.Context) ([]OverdueLoan, error) {
	now := time.Now().UTC()

	loans, err := s.store.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}

	out := make([]OverdueLoan, 0, len(loans))
	for _, l := range loans {
		user, book, err := s.fetchRefs(ctx, l.UserID, l.BookID)
		if err != nil {
			return nil, err
		}
		out = append(out, OverdueLoan{
			Loan:        l,
			User:        *user,
			Book:        *book,
			DaysOverdue: int64(now.Sub(l.DueDate).Hours() / 24),
		})
	}
	return out, nil
}

func (s *service) BookStats(ctx context.Context) ([]model.BookStat, error) {
	return s.store.BookStats(ctx)
}

func (s *service) ActiveUserStats(ctx context.Context) ([]model.UserStat, error) {
	return s.store.ActiveUserStats(ctx)
}

// fetchRefs resolves the user and book summaries concurrently; either
// failure fails the read.
func (s *service) fetchRefs(ctx context.Context, userID, bookID string) (*UserRef, *BookRef, error) {
	var (
		userRef UserRef
		bookRef BookRef
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.users.GetUser(gctx, userID)
		if err != nil {
			return err
		}
		userRef = UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
		return nil
	})
	g.Go(func() error {
		b, err := s.books.GetBook(gctx, bookID)
		if err != nil {
			return err
		}
		bookRef = BookRef{ID: b.ID, Title: b.Title, Author: b.Author}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, mapRemote(err)
	}
	return &userRef, &bookRef, nil
}

// mapRemote folds any unavailable outcome into the service's own taxonomy,
// leaving everything else as an internal error.
func mapRemote(err error) error {
	if remote.IsUnavailable(err) {
		return wrapErr(ErrUnavailable, err)
	}
	return err
}
