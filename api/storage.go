package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// store is the CRUD surface the handlers run against. storage implements it
// on PostgreSQL; tests implement it in memory.
type store interface {
	createUser(u *user) error
	getUserByEmail(email string) (*user, error)

	getStatuses() ([]status, error)
	getStatusByID(id int) (*status, error)
	getStatusByLabel(label string) (*status, error)
	seedStatuses(labels []string) error

	getCategories(userID int) ([]category, error)
	getCategory(id, userID int) (*category, error)
	getCategoryByName(userID int, name string) (*category, error)
	createCategory(c *category) error
	updateCategory(c *category) error
	deleteCategory(id, userID int) error
	categoryInUse(categoryID int) (bool, error)

	getTodos(userID int, filter todoFilter, deletedStatusID int) ([]todoView, error)
	getTodo(id, userID int) (*todo, error)
	getTodoView(id, userID int) (*todoView, error)
	createTodo(t *todo) error
	updateTodo(t *todo) error
}

type todoFilter int

const (
	todosActive todoFilter = iota
	todosAll
	todosDeleted
)

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation. The uniqueness pre-checks in the handlers exist for better
// error messages; the constraints are the authoritative guard.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConnections)
	db.SetMaxIdleConns(cfg.db.maxIdleConnections)
	db.SetConnMaxIdleTime(cfg.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		return nil, err
	}

	return db, nil
}

type storage struct {
	db *sql.DB
}

func newStorage(db *sql.DB) *storage {
	return &storage{db: db}
}

func (s *storage) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id serial PRIMARY KEY,
			created_at timestamptz NOT NULL DEFAULT now(),
			name text NOT NULL,
			email text NOT NULL UNIQUE,
			password_hash bytea NOT NULL,
			salt bytea NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS statuses (
			id serial PRIMARY KEY,
			label text NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id serial PRIMARY KEY,
			user_id integer NOT NULL REFERENCES users (id),
			name text NOT NULL,
			UNIQUE (user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS todos (
			id serial PRIMARY KEY,
			created_at timestamptz NOT NULL DEFAULT now(),
			user_id integer NOT NULL REFERENCES users (id),
			title text NOT NULL,
			description text NOT NULL DEFAULT '',
			category_id integer REFERENCES categories (id),
			status_id integer NOT NULL REFERENCES statuses (id)
		)`,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *storage) createUser(u *user) error {
	query := `INSERT INTO users (name, email, password_hash, salt)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.Salt)
	return row.Scan(&u.ID, &u.CreatedAt)
}

func (s *storage) getUserByEmail(email string) (*user, error) {
	query := `SELECT id, created_at, name, email, password_hash, salt
			  FROM users
			  WHERE email = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, email)
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Name, &u.Email, &u.PasswordHash, &u.Salt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

// seedStatuses inserts the canonical labels when the catalog is empty.
// ON CONFLICT keeps concurrent startups at-most-once effective.
func (s *storage) seedStatuses(labels []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM statuses`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, label := range labels {
		query := `INSERT INTO statuses (label) VALUES ($1) ON CONFLICT (label) DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, label); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *storage) getStatuses() ([]status, error) {
	query := `SELECT id, label FROM statuses ORDER BY id`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	statuses := []status{}
	for rows.Next() {
		var st status
		if err := rows.Scan(&st.ID, &st.Label); err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

func (s *storage) getStatusByID(id int) (*status, error) {
	query := `SELECT id, label FROM statuses WHERE id = $1`
	return s.getStatus(query, id)
}

func (s *storage) getStatusByLabel(label string) (*status, error) {
	query := `SELECT id, label FROM statuses WHERE label = $1`
	return s.getStatus(query, label)
}

func (s *storage) getStatus(query string, arg any) (*status, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, arg)
	var st status
	err := row.Scan(&st.ID, &st.Label)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &st, nil
}

func (s *storage) getCategories(userID int) ([]category, error) {
	query := `SELECT id, user_id, name
			  FROM categories
			  WHERE user_id = $1
			  ORDER BY id`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	categories := []category{}
	for rows.Next() {
		var c category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *storage) getCategory(id, userID int) (*category, error) {
	query := `SELECT id, user_id, name
			  FROM categories
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id, userID)
	var c category
	err := row.Scan(&c.ID, &c.UserID, &c.Name)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &c, nil
}

func (s *storage) getCategoryByName(userID int, name string) (*category, error) {
	query := `SELECT id, user_id, name
			  FROM categories
			  WHERE user_id = $1 AND name = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, userID, name)
	var c category
	err := row.Scan(&c.ID, &c.UserID, &c.Name)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &c, nil
}

func (s *storage) createCategory(c *category) error {
	query := `INSERT INTO categories (user_id, name)
			  VALUES ($1, $2)
			  RETURNING id`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, c.UserID, c.Name)
	return row.Scan(&c.ID)
}

func (s *storage) updateCategory(c *category) error {
	query := `UPDATE categories SET name = $1
			  WHERE id = $2 AND user_id = $3`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, c.Name, c.ID, c.UserID)
	return err
}

func (s *storage) deleteCategory(id, userID int) error {
	query := `DELETE FROM categories
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, id, userID)
	return err
}

// categoryInUse reports whether any todo references the category,
// soft-deleted todos included. The reference itself blocks deletion.
func (s *storage) categoryInUse(categoryID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM todos WHERE category_id = $1)`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var inUse bool
	err := s.db.QueryRowContext(ctx, query, categoryID).Scan(&inUse)
	return inUse, err
}

const todoViewQuery = `SELECT t.id, t.created_at, t.user_id, t.title, t.description, t.category_id, t.status_id,
			  c.id, c.user_id, c.name, s.id, s.label
			  FROM todos t
			  LEFT JOIN categories c ON c.id = t.category_id
			  INNER JOIN statuses s ON s.id = t.status_id`

func scanTodoView(rows interface{ Scan(...any) error }) (*todoView, error) {
	var (
		tv           todoView
		categoryID   sql.NullInt64
		catID        sql.NullInt64
		catUserID    sql.NullInt64
		categoryName sql.NullString
	)
	err := rows.Scan(&tv.ID, &tv.CreatedAt, &tv.UserID, &tv.Title, &tv.Description,
		&categoryID, &tv.StatusID, &catID, &catUserID, &categoryName, &tv.Status.ID, &tv.Status.Label)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		id := int(categoryID.Int64)
		tv.CategoryID = &id
		tv.Category = &category{
			ID:     int(catID.Int64),
			UserID: int(catUserID.Int64),
			Name:   categoryName.String,
		}
	}
	return &tv, nil
}

func (s *storage) getTodos(userID int, filter todoFilter, deletedStatusID int) ([]todoView, error) {
	query := todoViewQuery + ` WHERE t.user_id = $1`
	args := []any{userID}
	switch filter {
	case todosActive:
		query += ` AND t.status_id <> $2`
		args = append(args, deletedStatusID)
	case todosDeleted:
		query += ` AND t.status_id = $2`
		args = append(args, deletedStatusID)
	}
	query += ` ORDER BY t.id`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	todos := []todoView{}
	for rows.Next() {
		tv, err := scanTodoView(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *tv)
	}
	return todos, rows.Err()
}

func (s *storage) getTodo(id, userID int) (*todo, error) {
	query := `SELECT id, created_at, user_id, title, description, category_id, status_id
			  FROM todos
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id, userID)
	var (
		t          todo
		categoryID sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.CreatedAt, &t.UserID, &t.Title, &t.Description, &categoryID, &t.StatusID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	if categoryID.Valid {
		id := int(categoryID.Int64)
		t.CategoryID = &id
	}
	return &t, nil
}

func (s *storage) getTodoView(id, userID int) (*todoView, error) {
	query := todoViewQuery + ` WHERE t.id = $1 AND t.user_id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id, userID)
	tv, err := scanTodoView(row)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return tv, nil
}

func (s *storage) createTodo(t *todo) error {
	query := `INSERT INTO todos (user_id, title, description, category_id, status_id)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, created_at`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, t.UserID, t.Title, t.Description, t.CategoryID, t.StatusID)
	return row.Scan(&t.ID, &t.CreatedAt)
}

func (s *storage) updateTodo(t *todo) error {
	query := `UPDATE todos SET title = $1, description = $2, category_id = $3, status_id = $4
			  WHERE id = $5 AND user_id = $6`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, t.Title, t.Description, t.CategoryID, t.StatusID, t.ID, t.UserID)
	return err
}
