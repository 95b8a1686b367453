package remote

import (
	"context"
	"net/http"
	"time"

	"github.com/samdani91/Smart-Library-System/breaker"
	"github.com/samdani91/Smart-Library-System/model"
)

// LoanClient talks to the loan service through the "loan-service" breaker.
// The book and user services use it to resolve borrow rankings.
type LoanClient struct {
	c *caller
}

func NewLoanClient(baseURL string, timeout time.Duration, breakers *breaker.Registry, httpClient *http.Client, metrics *Metrics) *LoanClient {
	return &LoanClient{c: newCaller("loan-service", baseURL, timeout, breakers, httpClient, metrics)}
}

// BookStats returns borrow counts per book, most borrowed first.
func (l *LoanClient) BookStats(ctx context.Context) ([]model.BookStat, error) {
	var out []model.BookStat
	if err := l.c.get(ctx, "book_stats", "/api/loans/book-stats", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveUserStats returns active-loan counts per user, busiest first.
func (l *LoanClient) ActiveUserStats(ctx context.Context) ([]model.UserStat, error) {
	var out []model.UserStat
	if err := l.c.get(ctx, "active_user_stats", "/api/loans/active-users", &out); err != nil {
		return nil, err
	}
	return out, nil
}
