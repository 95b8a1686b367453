package booksvc

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samdani91/Smart-Library-System/model"
	"github.com/samdani91/Smart-Library-System/remote"
	bookrepo "github.com/samdani91/Smart-Library-System/repository/book"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound      ErrCode = "BOOK_NOT_FOUND"
	ErrNoCopies      ErrCode = "NO_COPIES"
	ErrBadOperation  ErrCode = "BAD_OPERATION"
	ErrDuplicateISBN ErrCode = "DUPLICATE_ISBN"
	ErrUnavailable   ErrCode = "DEPENDENCY_UNAVAILABLE"
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

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// dto

// PopularBook is one row of the popular-books ranking after enrichment.
type PopularBook struct {
	BookID      string `json:"book_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	BorrowCount int64  `json:"borrow_count"`
}

type Repo interface {
	Create(ctx context.Context, title, author, isbn string, copies int) (*model.Book, error)
	GetByID(ctx context.Context, id string) (*model.Book, error)
	Search(ctx context.Context, query string) ([]model.Book, error)
	Update(ctx context.Context, id, title, author, isbn string, copies int) (*model.Book, error)
	Delete(ctx context.Context, id string) error
	Increment(ctx context.Context, id string) (int, error)
	Decrement(ctx context.Context, id string) (int, error)
	Count(ctx context.Context) (int64, error)
	CountAvailable(ctx context.Context) (int64, error)
}

// Loans is the slice of the loan service the popular-books ranking needs.
type Loans interface {
	BookStats(ctx context.Context) ([]model.BookStat, error)
}

type Service interface {
	Create(ctx context.Context, title, author, isbn string, copies int) (*model.Book, error)
	Get(ctx context.Context, id string) (*model.Book, error)
	Search(ctx context.Context, query string) ([]model.Book, error)
	Update(ctx context.Context, id, title, author, isbn string, copies int) (*model.Book, error)
	Delete(ctx context.Context, id string) error

	// AdjustAvailability applies "increment" or "decrement" to the
	// available-copy count.
	AdjustAvailability(ctx context.Context, id, operation string) (*model.Book, error)

	Count(ctx context.Context) (int64, error)
	CountAvailable(ctx context.Context) (int64, error)

	// PopularBooks resolves the top five most-borrowed books. An entry the
	// catalog no longer has is dropped, not an error.
	PopularBooks(ctx context.Context) ([]PopularBook, error)
}

// ----- Service implementation -----

const rankingLimit = 5

type service struct {
	r     Repo
	loans Loans
}

func New(r Repo, loans Loans) Service {
	return &service{r: r, loans: loans}
}

func (s *service) Create(ctx context.Context, title, author, isbn string, copies int) (*model.Book, error) {
	b, err := s.r.Create(ctx, title, author, isbn, copies)
	if errors.Is(err, bookrepo.ErrDuplicateISBN) {
		return nil, wrapErr(ErrDuplicateISBN, err)
	}
	return b, err
}

func (s *service) Get(ctx context.Context, id string) (*model.Book, error) {
	b, err := s.r.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	return b, err
}

func (s *service) Search(ctx context.Context, query string) ([]model.Book, error) {
	return s.r.Search(ctx, query)
}

func (s *service) Update(ctx context.Context, id, title, author, isbn string, copies int) (*model.Book, error) {
	b, err := s.r.Update(ctx, id, title, author, isbn, copies)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, makeErr(ErrNotFound)
	case errors.Is(err, bookrepo.ErrDuplicateISBN):
		return nil, wrapErr(ErrDuplicateISBN, err)
	}
	return b, err
}

func (s *service) Delete(ctx context.Context, id string) error {
	err := s.r.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return makeErr(ErrNotFound)
	}
	return err
}

func (s *service) AdjustAvailability(ctx context.Context, id, operation string) (*model.Book, error) {
	var err error
	switch operation {
	case remote.OpIncrement:
		_, err = s.r.Increment(ctx, id)
	case remote.OpDecrement:
		_, err = s.r.Decrement(ctx, id)
	default:
		return nil, makeErr(ErrBadOperation)
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, makeErr(ErrNotFound)
	case errors.Is(err, bookrepo.ErrNoCopies):
		return nil, wrapErr(ErrNoCopies, err)
	case err != nil:
		return nil, err
	}

	return s.r.GetByID(ctx, id)
}

func (s *service) Count(ctx context.Context) (int64, error) {
	return s.r.Count(ctx)
}

func (s *service) CountAvailable(ctx context.Context) (int64, error) {
	return s.r.CountAvailable(ctx)
}

func (s *service) PopularBooks(ctx context.Context) ([]PopularBook, error) {
	stats, err := s.loans.BookStats(ctx)
	if err != nil {
		if remote.IsUnavailable(err) {
			return nil, wrapErr(ErrUnavailable, err)
		}
		return nil, err
	}

	if len(stats) > rankingLimit {
		stats = stats[:rankingLimit]
	}

	popular := make([]PopularBook, 0, len(stats))
	for _, st := range stats {
		b, err := s.r.GetByID(ctx, st.BookID)
		if errors.Is(err, sql.ErrNoRows) {
			// Book no longer in the catalog: drop the entry.
			continue
		}
		if err != nil {
			return nil, err
		}
		popular = append(popular, PopularBook{
			BookID:      b.ID,
			Title:       b.Title,
			Author:      b.Author,
			BorrowCount: st.BorrowCount,
		})
	}
	return popular, nil
}
