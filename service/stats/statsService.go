package statssvc

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samdani91/Smart-Library-System/remote"
)

type ErrCode string

const (
	ErrUnavailable ErrCode = "DEPENDENCY_UNAVAILABLE"
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

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Books is the slice of the book service the overview needs.
type Books interface {
	CountBooks(ctx context.Context) (int64, error)
	CountAvailableBooks(ctx context.Context) (int64, error)
}

// Users is the slice of the user service the overview needs.
type Users interface {
	CountUsers(ctx context.Context) (int64, error)
}

// LoanCounts are the local loan-store aggregates appended to the overview.
type LoanCounts interface {
	CountActive(ctx context.Context) (int64, error)
	CountOverdue(ctx context.Context, asOf time.Time) (int64, error)
	CountIssuedSince(ctx context.Context, t time.Time) (int64, error)
	CountReturnedSince(ctx context.Context, t time.Time) (int64, error)
}

// Overview is the composite statistics response.
type Overview struct {
	TotalBooks     int64 `json:"total_books"`
	TotalUsers     int64 `json:"total_users"`
	BooksAvailable int64 `json:"books_available"`
	BooksBorrowed  int64 `json:"books_borrowed"`
	OverdueLoans   int64 `json:"overdue_loans"`
	LoansToday     int64 `json:"loans_today"`
	ReturnsToday   int64 `json:"returns_today"`
}

type Service interface {
	// Overview fans out the three remote counts concurrently; if any of
	// them fails the whole overview fails — no partial response.
	Overview(ctx context.Context) (*Overview, error)
}

type service struct {
	loans LoanCounts
	users Users
	books Books
}

func New(loans LoanCounts, users Users, books Books) Service {
	return &service{loans: loans, users: users, books: books}
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	var o Overview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.books.CountBooks(gctx)
		o.TotalBooks = n
		return err
	})
	g.Go(func() error {
		n, err := s.users.CountUsers(gctx)
		o.TotalUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.books.CountAvailableBooks(gctx)
		o.BooksAvailable = n
		return err
	})

	if err := g.Wait(); err != nil {
		if remote.IsUnavailable(err) {
			return nil, codedError{code: ErrUnavailable, cause: err}
		}
		return nil, err
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var err error
	if o.BooksBorrowed, err = s.loans.CountActive(ctx); err != nil {
		return nil, err
	}
	if o.OverdueLoans, err = s.loans.CountOverdue(ctx, now); err != nil {
		return nil, err
	}
	if o.LoansToday, err = s.loans.CountIssuedSince(ctx, midnight); err != nil {
		return nil, err
	}
	if o.ReturnsToday, err = s.loans.CountReturnedSince(ctx, midnight); err != nil {
		return nil, err
	}

	return &o, nil
}
