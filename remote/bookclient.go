package remote

import (
	"context"
	"net/http"
	"time"

	"github.com/samdani91/Smart-Library-System/breaker"
)

// Book is the book service's representation of a book.
type Book struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	Copies          int    `json:"copies"`
	AvailableCopies int    `json:"available_copies"`
}

// Availability is the book service's answer to an availability adjustment.
type Availability struct {
	ID              string `json:"id"`
	AvailableCopies int    `json:"available_copies"`
}

// BookClient talks to the book service through the "book-service" breaker.
type BookClient struct {
	c *caller
}

func NewBookClient(baseURL string, timeout time.Duration, breakers *breaker.Registry, httpClient *http.Client, metrics *Metrics) *BookClient {
	return &BookClient{c: newCaller("book-service", baseURL, timeout, breakers, httpClient, metrics)}
}

func (b *BookClient) GetBook(ctx context.Context, id string) (*Book, error) {
	var out Book
	if err := b.c.get(ctx, "get_book", "/api/books/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *BookClient) CountBooks(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := b.c.get(ctx, "count_books", "/api/books/count", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (b *BookClient) CountAvailableBooks(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := b.c.get(ctx, "count_available_books", "/api/books/available-count", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// AdjustAvailability applies an increment or decrement to a book's available
// copies. A decrement on a book with no copies left comes back as a
// Validation error; it is not a breaker failure.
func (b *BookClient) AdjustAvailability(ctx context.Context, id, operation string) (*Availability, error) {
	body := struct {
		Operation string `json:"operation"`
	}{Operation: operation}

	var out Availability
	if err := b.c.patch(ctx, "adjust_availability", "/api/books/"+id+"/availability", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
