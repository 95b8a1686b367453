package loansvc_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdani91/Smart-Library-System/model"
	"github.com/samdani91/Smart-Library-System/remote"
	loansvc "github.com/samdani91/Smart-Library-System/service/loan"
)

type storeMock struct {
	insertFn       func(ctx context.Context, l model.Loan) error
	getFn          func(ctx context.Context, id string) (*model.Loan, error)
	listByUserFn   func(ctx context.Context, userID string) ([]model.Loan, error)
	listOverdueFn  func(ctx context.Context, asOf time.Time) ([]model.Loan, error)
	markReturnedFn func(ctx context.Context, id string, at time.Time) error
	extendFn       func(ctx context.Context, id string, due time.Time) (int, error)
}

func (m *storeMock) Insert(ctx context.Context, l model.Loan) error { return m.insertFn(ctx, l) }
func (m *storeMock) GetByID(ctx context.Context, id string) (*model.Loan, error) {
	return m.getFn(ctx, id)
}
func (m *storeMock) ListByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	return m.listByUserFn(ctx, userID)
}
func (m *storeMock) ListOverdue(ctx context.Context, asOf time.Time) ([]model.Loan, error) {
	return m.listOverdueFn(ctx, asOf)
}
func (m *storeMock) MarkReturned(ctx context.Context, id string, at time.Time) error {
	return m.markReturnedFn(ctx, id, at)
}
func (m *storeMock) Extend(ctx context.Context, id string, due time.Time) (int, error) {
	return m.extendFn(ctx, id, due)
}
func (m *storeMock) BookStats(ctx context.Context) ([]model.BookStat, error)      { return nil, nil }
func (m *storeMock) ActiveUserStats(ctx context.Context) ([]model.UserStat, error) { return nil, nil }

type usersMock struct {
	getUserFn func(ctx context.Context, id string) (*remote.User, error)
}

func (m *usersMock) GetUser(ctx context.Context, id string) (*remote.User, error) {
	return m.getUserFn(ctx, id)
}

type booksMock struct {
	getBookFn func(ctx context.Context, id string) (*remote.Book, error)
	adjustFn  func(ctx context.Context, id, operation string) (*remote.Availability, error)
}

func (m *booksMock) GetBook(ctx context.Context, id string) (*remote.Book, error) {
	return m.getBookFn(ctx, id)
}
func (m *booksMock) AdjustAvailability(ctx context.Context, id, operation string) (*remote.Availability, error) {
	return m.adjustFn(ctx, id, operation)
}

func knownUser(ctx context.Context, id string) (*remote.User, error) {
	return &remote.User{ID: id, Name: "Ada", Email: "ada@example.com", Role: "student"}, nil
}

func unavailableErr() error {
	return &remote.CallError{Kind: remote.KindUnavailable, Dependency: "book-service", Message: "circuit breaker is open"}
}

func notFoundErr(dep string) error {
	return &remote.CallError{Kind: remote.KindNotFound, Dependency: dep, Message: "not found"}
}

func TestIssueSuccess(t *testing.T) {
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	var inserted *model.Loan
	var ops []string

	s := loansvc.New(
		&storeMock{insertFn: func(ctx context.Context, l model.Loan) error {
			inserted = &l
			return nil
		}},
		&usersMock{getUserFn: knownUser},
		&booksMock{
			getBookFn: func(ctx context.Context, id string) (*remote.Book, error) {
				return &remote.Book{ID: id, Title: "Dune", AvailableCopies: 1}, nil
			},
			adjustFn: func(ctx context.Context, id, operation string) (*remote.Availability, error) {
				ops = append(ops, operation)
				return &remote.Availability{ID: id, AvailableCopies: 0}, nil
			},
		},
	)

	loan, err := s.Issue(context.Background(), "u-1", "b-1", due)
	require.NoError(t, err)

	assert.Equal(t, []string{remote.OpDecrement}, ops)
	require.NotNil(t, inserted)
	assert.NotEmpty(t, inserted.ID)
	assert.Equal(t, "u-1", inserted.UserID)
	assert.Equal(t, "b-1", inserted.BookID)
	assert.Equal(t, model.LoanActive, inserted.Status)
	assert.True(t, due.Equal(inserted.DueDate))
	assert.Zero(t, inserted.ExtensionsCount)
	assert.Equal(t, inserted.ID, loan.ID)
}

func TestIssueUnknownUserHasNoSideEffects(t *testing.T) {
	bookCalls := 0

	s := loansvc.New(
		&storeMock{insertFn: func(ctx context.Context, l model.Loan) error {
			t.Fatal("insert must not run")
			return nil
		}},
		&usersMock{getUserFn: func(ctx context.Context, id string) (*remote.User, error) {
			return nil, notFoundErr("user-service")
		}},
		&booksMock{
			getBookFn: func(ctx context.Context, id string) (*remote.Book, error) {
				bookCalls++
				return &remote.Book{ID: id, AvailableCopies: 1}, nil
			},
			adjustFn: func(ctx context.Context, id, operation string) (*remote.Availability, error) {
				bookCalls++
				return nil, nil
			},
		},
	)

	_, err := s.Issue(context.Background(), "ghost", "b-1", time.Now())
	assert.Equal(t, loansvc.ErrUserNotFound, loansvc.Code(err))
	assert.Zero(t, bookCalls, "book service must not be touched")
}

func TestIssueUserServiceDownIsUnavailable(t *testing.T) {
	s := loansvc.New(
		&storeMock{},
		&usersMock{getUserFn: func(ctx context.Context, id string) (*remote.User, error) {
			return nil, unavailableErr()
		}},
		&booksMock{},
	)

	_, err := s.Issue(context.Background(), "u-1", "b-1", time.Now())
	assert.Equal(t, loansvc.ErrUnavailable, loansvc.Code(err))
}

func TestIssueRejectsBookWithoutCopies(t *testing.T) {
	adjusted := false

	s := loansvc.New(
		&storeMock{},
		&usersMock{getUserFn: knownUser},
		&booksMock{
			getBookFn: func(ctx context.Context, id string) (*remote.Book, error) {
				return &remote.Book{ID: id, AvailableCopies: 0}, nil
			},
			adjustFn: func(ctx context.Context, id, operation string) (*remote.Availability, error) {
				adjusted = true
				return nil, nil
			},
		},
	)

	_, err := s.Issue(context.Background(), "u-1", "b-1", time.Now())
	assert.Equal(t, loansvc.ErrNoCopies, loansvc.Code(err))
	assert.False(t, adjusted)
}

func TestIssueLosingDecrementRaceIsNoCopies(t *testing.T) {
	s := loansvc.New(
		&storeMock{},
		&usersMock{getUserFn: knownUser},
		&booksMock{
			getBookFn: func(ctx context.Context, id string) (*remote.Book, error) {
				return &remote.Book{ID: id, AvailableCopies: 1}, nil
			},
			adjustFn: func(ctx context.Context, id, operation string) (*remote.Availability, error) {
				return nil, &remote.CallError{Kind: remote.KindValidation, Dependency: "book-service", Message: "No available copies"}
			},
		},
	)

	_, err := s.Issue(context.Background(), "u-1", "b-1", time.Now())
	assert.Equal(t, loansvc.ErrNoCopies, loansvc.Code(err))
}

// The availability decrement and the loan insert are not atomic: a failing
// insert leaves the decrement in place and issues no compensating increment.
func TestIssueInsertFailureLeavesDecrementApplied(t *testing.T) {
	var ops []string

	s := loansvc.New(
		&storeMock{insertFn: func(ctx context.Context, l model.Loan) error {
			return errors.New("connection reset")
		}},
		&usersMock{getUserFn: knownUser},
		&booksMock{
			getBookFn: func(ctx context.Context, id string) (*remote.Book, error) {
				return &remote.Book{ID: id, AvailableCopies: 3}, nil
			},
			adjustFn: func(ctx context.Context, id, operation string) (*remote.Availability, error) {
				ops = append(ops, operation)
				return &remote.Availability{ID: id, AvailableCopies: 2}, nil
			},
		},
	)

	_, err := s.Issue(context.Background(), "u-1", "b-1", time.Now())
	require.Error(t, err)
	assert.Empty(t, loansvc.Code(err), "persistence failure is internal, not coded")
	assert.Equal(t, []string{remote.OpDecrement}, ops, "no compensating increment")
}

func TestReturnSuccess(t *testing.T) {
	active := model.Loan{
		ID:      "l-1",
		UserID:  "u-1",
		BookID:  "b-1",
		DueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:  model.LoanActive,
	}

	var ops []string
	marked := false

	s := loansvc.New(
		&storeMock{
			getFn: func(ctx context.Context, id string) (*model.Loan, error) {
				l := active
				return &l, nil
			},
			markReturnedFn: func(ctx context.Context, id string, at time.Time) error {
				marked = true
				assert.Equal(t, "l-1", id)
				assert.False(t, at.IsZero())
				return nil
			},
		},
		&usersMock{},
		&booksMock{adjustFn: func(ctx context.Context, id, operation string) (*remote.Availability, error) {
			ops = append(ops, operation)
			return &remote.Availability{ID: id, AvailableCopies: 1}, nil
		}},
	)

	loan, err := s.Return(context.Background(), "l-1")
	require.NoError(t, err)
	assert.True(t, marked)
	assert.Equal(t, []string{remote.OpIncrement}, ops)
	assert.Equal(t, model.LoanReturned, loan.Status)
	require.NotNil(t, loan.ReturnDate)
}

func TestReturnUnknownLoan(t *testing.T) {
	s := loansvc.New(
		&storeMock{getFn: func(ctx context.Context, id string) (*model.Loan, error) {
			return nil, sql.ErrNoRows
		}},
		&usersMock{},
		&booksMock{},
	)

	_, err := s.Return(context.Background(), "ghost")
	assert.Equal(t, loansvc.ErrLoanNotFound, loansvc.Code(err))
}

func TestReturnAlreadyReturnedLoan(t *testing.T) {
	returnedAt := time.Now()
	adjusted := false

	s := loansvc.New(
		&storeMock{getFn: func(ctx context.Context, id string) (*model.Loan, error) {
			return &model.Loan{ID: id, Status: model.LoanReturned, ReturnDate: &returnedAt}, nil
		}},
		&usersMock{},
		&booksMock{adjustFn: func(ctx context.Context, id, operation string) (*remote.Availability, error) {
			adjusted = true
			return nil, nil
		}},
	)

	_, err := s.Return(context.Background(), "l-1")
	assert.Equal(t, loansvc.ErrAlreadyReturned, loansvc.Code(err))
	assert.False(t, adjusted, "a returned loan must never be mutated again")
}

func TestExtendAddsCalendarDays(t *testing.T) {
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	s := loansvc.New(
		&storeMock{
			getFn: func(ctx context.Context, id string) (*model.Loan, error) {
				return &model.Loan{ID: id, DueDate: due, Status: model.LoanActive}, nil
			},
			extendFn: func(ctx context.Context, id string, newDue time.Time) (int, error) {
				assert.True(t, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC).Equal(newDue))
				return 1, nil
			},
		},
		&usersMock{},
		&booksMock{},
	)

	ext, err := s.Extend(context.Background(), "l-1", 7)
	require.NoError(t, err)
	assert.True(t, due.Equal(ext.OriginalDueDate))
	assert.True(t, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC).Equal(ext.Loan.DueDate))
	assert.Equal(t, 1, ext.Loan.ExtensionsCount)
}

func TestExtendRejectsReturnedLoan(t *testing.T) {
	s := loansvc.New(
		&storeMock{getFn: func(ctx context.Context, id string) (*model.Loan, error) {
			return &model.Loan{ID: id, Status: model.LoanReturned}, nil
		}},
		&usersMock{},
		&booksMock{},
	)

	_, err := s.Extend(context.Background(), "l-1", 7)
	assert.Equal(t, loansvc.ErrAlreadyReturned, loansvc.Code(err))
}

func TestLoansByUserFailsWhenEnrichmentUnavailable(t *testing.T) {
	s := loansvc.New(
		&storeMock{listByUserFn: func(ctx context.Context, userID string) ([]model.Loan, error) {
			return []model.Loan{{ID: "l-1", UserID: userID, BookID: "b-1", Status: model.LoanActive}}, nil
		}},
		&usersMock{},
		&booksMock{getBookFn: func(ctx context.Context, id string) (*remote.Book, error) {
			return nil, unavailableErr()
		}},
	)

	_, err := s.LoansByUser(context.Background(), "u-1")
	assert.Equal(t, loansvc.ErrUnavailable, loansvc.Code(err))
}

func TestLoanByIDEnrichesUserAndBook(t *testing.T) {
	s := loansvc.New(
		&storeMock{getFn: func(ctx context.Context, id string) (*model.Loan, error) {
			return &model.Loan{ID: id, UserID: "u-1", BookID: "b-1", Status: model.LoanActive}, nil
		}},
		&usersMock{getUserFn: knownUser},
		&booksMock{getBookFn: func(ctx context.Context, id string) (*remote.Book, error) {
			return &remote.Book{ID: id, Title: "Dune", Author: "Frank Herbert"}, nil
		}},
	)

	detail, err := s.LoanByID(context.Background(), "l-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", detail.User.Name)
	assert.Equal(t, "Dune", detail.Book.Title)
}
