package remote_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdani91/Smart-Library-System/breaker"
	"github.com/samdani91/Smart-Library-System/remote"
)

func newTestRegistry(threshold uint32) *breaker.Registry {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return breaker.NewRegistry(breaker.Config{FailureThreshold: threshold, ResetAfter: time.Minute}, log, nil)
}

func newTestMetrics() *remote.Metrics {
	return remote.NewMetricsWithRegistry(prometheus.NewRegistry())
}

func TestGetBookDecodesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/books/b-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"b-1","title":"Dune","author":"Frank Herbert","isbn":"9780441013593","copies":4,"available_copies":2}`))
	}))
	defer srv.Close()

	bc := remote.NewBookClient(srv.URL, time.Second, newTestRegistry(3), srv.Client(), newTestMetrics())

	book, err := bc.GetBook(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, 2, book.AvailableCopies)
}

func TestNotFoundIsSemanticAndDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"User not found"}`))
	}))
	defer srv.Close()

	reg := newTestRegistry(3)
	uc := remote.NewUserClient(srv.URL, time.Second, reg, srv.Client(), newTestMetrics())

	for i := 0; i < 5; i++ {
		_, err := uc.GetUser(context.Background(), "nobody")
		require.Error(t, err)
		assert.True(t, remote.IsNotFound(err), "want NotFound, got %v", err)
	}

	assert.Equal(t, breaker.StateClosed, reg.GetState("user-service"))
	assert.Zero(t, reg.GetCounts("user-service").TotalFailures)
}

func TestNoCopiesIsValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"No available copies"}`))
	}))
	defer srv.Close()

	bc := remote.NewBookClient(srv.URL, time.Second, newTestRegistry(3), srv.Client(), newTestMetrics())

	_, err := bc.AdjustAvailability(context.Background(), "b-1", remote.OpDecrement)
	require.Error(t, err)
	assert.True(t, remote.IsValidation(err))
	assert.Contains(t, err.Error(), "No available copies")
}

func TestServerErrorsTripBreaker(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg := newTestRegistry(3)
	uc := remote.NewUserClient(srv.URL, time.Second, reg, srv.Client(), newTestMetrics())

	for i := 0; i < 3; i++ {
		_, err := uc.CountUsers(context.Background())
		require.Error(t, err)
		assert.True(t, remote.IsUnavailable(err))
	}
	require.Equal(t, breaker.StateOpen, reg.GetState("user-service"))
	require.Equal(t, int64(3), hits.Load())

	// Open breaker: rejected without a network attempt.
	_, err := uc.CountUsers(context.Background())
	require.Error(t, err)
	assert.True(t, remote.IsUnavailable(err))
	assert.ErrorIs(t, err, breaker.ErrOpen)
	assert.Equal(t, int64(3), hits.Load())
}

func TestDeadlineExpiryCountsAsBreakerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer srv.Close()

	reg := newTestRegistry(3)
	uc := remote.NewUserClient(srv.URL, 30*time.Millisecond, reg, srv.Client(), newTestMetrics())

	_, err := uc.GetUser(context.Background(), "u-1")
	require.Error(t, err)
	assert.True(t, remote.IsUnavailable(err))
	assert.Equal(t, uint32(1), reg.GetCounts("user-service").ConsecutiveFailures)
}

func TestRankingEndpointsDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/loans/book-stats":
			_, _ = w.Write([]byte(`[{"book_id":"b-1","borrow_count":9},{"book_id":"b-2","borrow_count":4}]`))
		case "/api/loans/active-users":
			_, _ = w.Write([]byte(`[{"user_id":"u-7","books_borrowed":3}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	lc := remote.NewLoanClient(srv.URL, time.Second, newTestRegistry(3), srv.Client(), newTestMetrics())

	books, err := lc.BookStats(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, int64(9), books[0].BorrowCount)

	users, err := lc.ActiveUserStats(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u-7", users[0].UserID)
}
