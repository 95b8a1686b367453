package usersvc

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samdani91/Smart-Library-System/model"
	"github.com/samdani91/Smart-Library-System/remote"
	userrepo "github.com/samdani91/Smart-Library-System/repository/user"
)

type ErrCode string

const (
	ErrNotFound       ErrCode = "USER_NOT_FOUND"
	ErrDuplicateEmail ErrCode = "DUPLICATE_EMAIL"
	ErrUnavailable    ErrCode = "DEPENDENCY_UNAVAILABLE"
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

// ActiveUser is one row of the active-users ranking after enrichment.
type ActiveUser struct {
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	BooksBorrowed  int64  `json:"books_borrowed"`
	CurrentBorrows int64  `json:"current_borrows"`
}

type Repo interface {
	Create(ctx context.Context, name, email string, role model.UserRole) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id, name, email string) (*model.User, error)
	Count(ctx context.Context) (int64, error)
}

// Loans is the slice of the loan service the active-users ranking needs.
type Loans interface {
	ActiveUserStats(ctx context.Context) ([]model.UserStat, error)
}

type Service interface {
	Create(ctx context.Context, name, email string, role model.UserRole) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id, name, email string) (*model.User, error)
	Count(ctx context.Context) (int64, error)

	// ActiveUsers resolves the top five busiest borrowers. A ranked user
	// this service no longer knows is dropped, not an error.
	ActiveUsers(ctx context.Context) ([]ActiveUser, error)
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

func (s *service) Create(ctx context.Context, name, email string, role model.UserRole) (*model.User, error) {
	u, err := s.r.Create(ctx, name, email, role)
	if errors.Is(err, userrepo.ErrDuplicateEmail) {
		return nil, wrapErr(ErrDuplicateEmail, err)
	}
	return u, err
}

func (s *service) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.r.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	return u, err
}

func (s *service) Update(ctx context.Context, id, name, email string) (*model.User, error) {
	u, err := s.r.Update(ctx, id, name, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, makeErr(ErrNotFound)
	case errors.Is(err, userrepo.ErrDuplicateEmail):
		return nil, wrapErr(ErrDuplicateEmail, err)
	}
	return u, err
}

func (s *service) Count(ctx context.Context) (int64, error) {
	return s.r.Count(ctx)
}

func (s *service) ActiveUsers(ctx context.Context) ([]ActiveUser, error) {
	stats, err := s.loans.ActiveUserStats(ctx)
	if err != nil {
		if remote.IsUnavailable(err) {
			return nil, wrapErr(ErrUnavailable, err)
		}
		return nil, err
	}

	if len(stats) > rankingLimit {
		stats = stats[:rankingLimit]
	}

	active := make([]ActiveUser, 0, len(stats))
	for _, st := range stats {
		u, err := s.r.GetByID(ctx, st.UserID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		active = append(active, ActiveUser{
			UserID:         u.ID,
			Name:           u.Name,
			BooksBorrowed:  st.BooksBorrowed,
			CurrentBorrows: st.BooksBorrowed,
		})
	}
	return active, nil
}
