package remote

import (
	"context"
	"net/http"
	"time"

	"github.com/samdani91/Smart-Library-System/breaker"
)

// User is the user service's representation of a user, fetched per call and
// never cached beyond the request.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserClient talks to the user service through the "user-service" breaker.
type UserClient struct {
	c *caller
}

func NewUserClient(baseURL string, timeout time.Duration, breakers *breaker.Registry, httpClient *http.Client, metrics *Metrics) *UserClient {
	return &UserClient{c: newCaller("user-service", baseURL, timeout, breakers, httpClient, metrics)}
}

func (u *UserClient) GetUser(ctx context.Context, id string) (*User, error) {
	var out User
	if err := u.c.get(ctx, "get_user", "/api/users/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *UserClient) CountUsers(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := u.c.get(ctx, "count_users", "/api/users/count", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}
