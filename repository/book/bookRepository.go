// repository/book/bookRepository.go
package book

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samdani91/Smart-Library-System/model"
)

var (
	// ErrDuplicateISBN is returned when the unique isbn constraint rejects a
	// write.
	ErrDuplicateISBN = errors.New("book: isbn already registered")
	// ErrNoCopies is returned by Decrement when the book exists but has no
	// available copies left.
	ErrNoCopies = errors.New("book: no available copies")
)

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Create(ctx context.Context, title, author, isbn string, copies int) (*model.Book, error) {
	const q = `
		INSERT INTO books (id, title, author, isbn, copies, available_copies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5, now(), now())
		RETURNING created_at, updated_at`

	b := model.Book{
		ID:              uuid.NewString(),
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		Copies:          copies,
		AvailableCopies: copies,
	}

	err := r.db.QueryRowContext(ctx, q, b.ID, title, author, isbn, copies).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, mapUnique(err)
	}
	return &b, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*model.Book, error) {
	const q = `
		SELECT id, title, author, isbn, copies, available_copies, created_at, updated_at
		FROM books
		WHERE id = $1`

	return scanBook(r.db.QueryRowContext(ctx, q, id))
}

// Search matches title or author by case-insensitive substring. An empty
// query returns everything.
func (r *Repo) Search(ctx context.Context, query string) ([]model.Book, error) {
	const q = `
		SELECT id, title, author, isbn, copies, available_copies, created_at, updated_at
		FROM books
		WHERE title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%'
		ORDER BY title`

	rows, err := r.db.QueryContext(ctx, q, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Copies,
			&b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// Update replaces the catalog fields and resets available_copies to the new
// total, mirroring a full re-registration of the title.
func (r *Repo) Update(ctx context.Context, id, title, author, isbn string, copies int) (*model.Book, error) {
	const q = `
		UPDATE books
		SET title = $2, author = $3, isbn = $4, copies = $5, available_copies = $5, updated_at = now()
		WHERE id = $1
		RETURNING id, title, author, isbn, copies, available_copies, created_at, updated_at`

	b, err := scanBook(r.db.QueryRowContext(ctx, q, id, title, author, isbn, copies))
	if err != nil {
		return nil, mapUnique(err)
	}
	return b, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *Repo) Increment(ctx context.Context, id string) (int, error) {
	const q = `
		UPDATE books
		SET available_copies = available_copies + 1, updated_at = now()
		WHERE id = $1
		RETURNING available_copies`

	var n int
	err := r.db.QueryRowContext(ctx, q, id).Scan(&n)
	return n, err
}

// Decrement takes one available copy. The guard lives in the statement so
// two concurrent decrements can never take the same last copy.
func (r *Repo) Decrement(ctx context.Context, id string) (int, error) {
	const q = `
		UPDATE books
		SET available_copies = available_copies - 1, updated_at = now()
		WHERE id = $1 AND available_copies > 0
		RETURNING available_copies`

	var n int
	err := r.db.QueryRowContext(ctx, q, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if checkErr := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists); checkErr != nil {
			return 0, checkErr
		}
		if exists {
			return 0, ErrNoCopies
		}
		return 0, sql.ErrNoRows
	}
	return n, err
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM books`).Scan(&n)
	return n, err
}

func (r *Repo) CountAvailable(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM books WHERE available_copies > 0`).Scan(&n)
	return n, err
}

func scanBook(row *sql.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Copies,
		&b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func mapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicateISBN
	}
	return err
}
