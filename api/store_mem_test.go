package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory store implementation for handler tests. Unique
// violations surface as pq errors so the handlers' conflict mapping is
// exercised the same way as against Postgres.
type memStore struct {
	mu             sync.Mutex
	users          map[int]*user
	statuses       []status
	categories     map[int]*category
	todos          map[int]*todo
	nextUserID     int
	nextStatusID   int
	nextCategoryID int
	nextTodoID     int
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[int]*user),
		categories: make(map[int]*category),
		todos:      make(map[int]*todo),
	}
}

func uniqueViolation() error {
	return &pq.Error{Code: "23505"}
}

func (m *memStore) createUser(u *user) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if other.Email == u.Email {
			return uniqueViolation()
		}
	}
	m.nextUserID++
	u.ID = m.nextUserID
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) getUserByEmail(email string) (*user, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) seedStatuses(labels []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.statuses) > 0 {
		return nil
	}
	for _, label := range labels {
		m.nextStatusID++
		m.statuses = append(m.statuses, status{ID: m.nextStatusID, Label: label})
	}
	return nil
}

func (m *memStore) getStatuses() ([]status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]status{}, m.statuses...), nil
}

func (m *memStore) getStatusByID(id int) (*status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.statuses {
		if st.ID == id {
			cp := st
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) getStatusByLabel(label string) (*status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.statuses {
		if st.Label == label {
			cp := st
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) getCategories(userID int) ([]category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	categories := []category{}
	for _, c := range m.categories {
		if c.UserID == userID {
			categories = append(categories, *c)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (m *memStore) getCategory(id, userID int) (*category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) getCategoryByName(userID int, name string) (*category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.UserID == userID && c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) createCategory(c *category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.categories {
		if other.UserID == c.UserID && other.Name == c.Name {
			return uniqueViolation()
		}
	}
	m.nextCategoryID++
	c.ID = m.nextCategoryID
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *memStore) updateCategory(c *category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.categories[c.ID]
	if !ok || existing.UserID != c.UserID {
		return nil
	}
	for _, other := range m.categories {
		if other.ID != c.ID && other.UserID == c.UserID && other.Name == c.Name {
			return uniqueViolation()
		}
	}
	existing.Name = c.Name
	return nil
}

func (m *memStore) deleteCategory(id, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if ok && c.UserID == userID {
		delete(m.categories, id)
	}
	return nil
}

func (m *memStore) categoryInUse(categoryID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.todos {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) join(t todo) todoView {
	tv := todoView{todo: t}
	if t.CategoryID != nil {
		if c, ok := m.categories[*t.CategoryID]; ok {
			cp := *c
			tv.Category = &cp
		}
	}
	for _, st := range m.statuses {
		if st.ID == t.StatusID {
			tv.Status = st
		}
	}
	return tv
}

func (m *memStore) getTodos(userID int, filter todoFilter, deletedStatusID int) ([]todoView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	todos := []todoView{}
	for _, t := range m.todos {
		if t.UserID != userID {
			continue
		}
		switch filter {
		case todosActive:
			if t.StatusID == deletedStatusID {
				continue
			}
		case todosDeleted:
			if t.StatusID != deletedStatusID {
				continue
			}
		}
		todos = append(todos, m.join(*t))
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return todos, nil
}

func (m *memStore) getTodo(id, userID int) (*todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) getTodoView(id, userID int) (*todoView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	tv := m.join(*t)
	return &tv, nil
}

func (m *memStore) createTodo(t *todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTodoID++
	t.ID = m.nextTodoID
	cp := *t
	m.todos[t.ID] = &cp
	return nil
}

func (m *memStore) updateTodo(t *todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.todos[t.ID]
	if !ok || existing.UserID != t.UserID {
		return nil
	}
	existing.Title = t.Title
	existing.Description = t.Description
	existing.CategoryID = t.CategoryID
	existing.StatusID = t.StatusID
	return nil
}

const testSecret = "test-secret"

func newTestApp(t *testing.T) (*application, http.Handler) {
	t.Helper()
	st := newMemStore()
	require.NoError(t, st.seedStatuses(statusLabels))
	app := &application{
		store:       st,
		verifyToken: jwtVerifier([]byte(testSecret)),
	}
	app.config.env = "test"
	app.config.jwtSecret = testSecret
	return app, composeRoutes(app)
}

// newTestAppUnseeded leaves the status catalog empty to exercise the
// configuration error paths.
func newTestAppUnseeded(t *testing.T) (*application, http.Handler) {
	t.Helper()
	app := &application{
		store:       newMemStore(),
		verifyToken: jwtVerifier([]byte(testSecret)),
	}
	app.config.env = "test"
	app.config.jwtSecret = testSecret
	return app, composeRoutes(app)
}

type testEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		StatusCode int             `json:"statusCode"`
		Result     json.RawMessage `json:"result"`
	} `json:"data"`
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var e testEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e), "body: %s", rr.Body.String())
	return rr, e
}

func decodeResult(t *testing.T, e testEnvelope, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data.Result, dst))
}

func signupUser(t *testing.T, h http.Handler, name, email, password string) (userID int, token string) {
	t.Helper()
	rr, e := doRequest(t, h, http.MethodPost, "/users/signup", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
	var result struct {
		UserID int    `json:"userId"`
		Email  string `json:"email"`
		Token  string `json:"token"`
	}
	decodeResult(t, e, &result)
	return result.UserID, result.Token
}
