package main

import "time"

// Canonical status catalog, seeded in this order on first startup.
const (
	statusNotStarted = "Not started"
	statusStarted    = "Started"
	statusCompleted  = "Completed"
	statusDeleted    = "Deleted"
)

var statusLabels = []string{statusNotStarted, statusStarted, statusCompleted, statusDeleted}

type user struct {
	ID           int       `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Salt         []byte    `json:"-"`
}

type status struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

type category struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Name   string `json:"name"`
}

type todo struct {
	ID          int       `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      int       `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  *int      `json:"categoryId"`
	StatusID    int       `json:"statusId"`
}

// todoView is a todo joined with its category (if any) and status.
type todoView struct {
	todo
	Category *category `json:"category"`
	Status   status    `json:"status"`
}

// identity is the authenticated caller extracted from a verified bearer
// token. It is the only request-scoped state protected handlers see.
type identity struct {
	UserID int
	Email  string
}
