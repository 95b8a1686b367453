package statssvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdani91/Smart-Library-System/remote"
	statssvc "github.com/samdani91/Smart-Library-System/service/stats"
)

type booksMock struct {
	countFn     func(ctx context.Context) (int64, error)
	availableFn func(ctx context.Context) (int64, error)
}

func (m *booksMock) CountBooks(ctx context.Context) (int64, error) { return m.countFn(ctx) }
func (m *booksMock) CountAvailableBooks(ctx context.Context) (int64, error) {
	return m.availableFn(ctx)
}

type usersMock struct {
	countFn func(ctx context.Context) (int64, error)
}

func (m *usersMock) CountUsers(ctx context.Context) (int64, error) { return m.countFn(ctx) }

type loanCountsMock struct {
	active   int64
	overdue  int64
	issued   int64
	returned int64
}

func (m *loanCountsMock) CountActive(ctx context.Context) (int64, error) { return m.active, nil }
func (m *loanCountsMock) CountOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	return m.overdue, nil
}
func (m *loanCountsMock) CountIssuedSince(ctx context.Context, t time.Time) (int64, error) {
	return m.issued, nil
}
func (m *loanCountsMock) CountReturnedSince(ctx context.Context, t time.Time) (int64, error) {
	return m.returned, nil
}

func fixed(n int64) func(ctx context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) { return n, nil }
}

func TestOverviewAggregatesAllSources(t *testing.T) {
	s := statssvc.New(
		&loanCountsMock{active: 12, overdue: 3, issued: 5, returned: 2},
		&usersMock{countFn: fixed(150)},
		&booksMock{countFn: fixed(500), availableFn: fixed(488)},
	)

	o, err := s.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(500), o.TotalBooks)
	assert.Equal(t, int64(150), o.TotalUsers)
	assert.Equal(t, int64(488), o.BooksAvailable)
	assert.Equal(t, int64(12), o.BooksBorrowed)
	assert.Equal(t, int64(3), o.OverdueLoans)
	assert.Equal(t, int64(5), o.LoansToday)
	assert.Equal(t, int64(2), o.ReturnsToday)
}

// One failing remote count fails the whole overview; there is no partial
// response with the surviving numbers.
func TestOverviewFailsWhenAnyRemoteCountFails(t *testing.T) {
	s := statssvc.New(
		&loanCountsMock{active: 12},
		&usersMock{countFn: func(ctx context.Context) (int64, error) {
			return 0, &remote.CallError{Kind: remote.KindUnavailable, Dependency: "user-service", Message: "circuit breaker is open"}
		}},
		&booksMock{countFn: fixed(500), availableFn: fixed(488)},
	)

	o, err := s.Overview(context.Background())
	assert.Nil(t, o)
	assert.Equal(t, statssvc.ErrUnavailable, statssvc.Code(err))
}
