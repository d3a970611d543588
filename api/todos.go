package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
)

// resolveStatusLabel looks a label up in the catalog. A missing label is an
// operational defect (seeding never ran), reported as a server error, so the
// second return tells the caller whether a response was already written.
func (app *application) resolveStatusLabel(w http.ResponseWriter, label string) (*status, bool) {
	st, err := app.store.getStatusByLabel(label)
	if err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return nil, false
	}
	if st == nil {
		log.Printf("status catalog is missing the %q label", label)
		writeServerError(w, "status configuration issue")
		return nil, false
	}
	return st, true
}

func (app *application) getActiveTodosHandler(w http.ResponseWriter, r *http.Request) {
	app.listTodos(w, r, todosActive)
}

func (app *application) getAllTodosHandler(w http.ResponseWriter, r *http.Request) {
	app.listTodos(w, r, todosAll)
}

func (app *application) getDeletedTodosHandler(w http.ResponseWriter, r *http.Request) {
	app.listTodos(w, r, todosDeleted)
}

func (app *application) listTodos(w http.ResponseWriter, r *http.Request, filter todoFilter) {
	id := identityFromRequest(r)
	var deletedStatusID int
	if filter != todosAll {
		deleted, ok := app.resolveStatusLabel(w, statusDeleted)
		if !ok {
			return
		}
		deletedStatusID = deleted.ID
	}
	todos, err := app.store.getTodos(id.UserID, filter, deletedStatusID)
	if err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	writeSuccess(w, http.StatusOK, todos)
}

func (app *application) getStatusesHandler(w http.ResponseWriter, r *http.Request) {
	statuses, err := app.store.getStatuses()
	if err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	writeSuccess(w, http.StatusOK, statuses)
}

func (app *application) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		CategoryID  *int   `json:"categoryId"`
		StatusID    *int   `json:"statusId"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil || strings.TrimSpace(input.Title) == "" {
		writeFail(w, http.StatusBadRequest, "title is required")
		return
	}

	if input.CategoryID != nil {
		c, err := app.store.getCategory(*input.CategoryID, id.UserID)
		if err != nil {
			log.Println(err)
			writeServerError(w, "internal server error")
			return
		}
		if c == nil {
			writeFail(w, http.StatusBadRequest, "invalid category or category doesn't belong to user")
			return
		}
	}

	var statusID int
	if input.StatusID != nil {
		st, err := app.store.getStatusByID(*input.StatusID)
		if err != nil {
			log.Println(err)
			writeServerError(w, "internal server error")
			return
		}
		if st == nil {
			writeFail(w, http.StatusBadRequest, "invalid status")
			return
		}
		statusID = st.ID
	} else {
		st, ok := app.resolveStatusLabel(w, statusNotStarted)
		if !ok {
			return
		}
		statusID = st.ID
	}

	t := &todo{
		UserID:      id.UserID,
		Title:       input.Title,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		StatusID:    statusID,
	}
	if err := app.store.createTodo(t); err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}

	tv, err := app.store.getTodoView(t.ID, id.UserID)
	if err != nil || tv == nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	writeSuccess(w, http.StatusCreated, tv)
}

func (app *application) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	todoID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeFail(w, http.StatusBadRequest, "invalid todo id")
		return
	}
	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		CategoryID  *int    `json:"categoryId"`
		StatusID    *int    `json:"statusId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := app.store.getTodo(todoID, id.UserID)
	if err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	if t == nil {
		writeFail(w, http.StatusNotFound, "todo not found")
		return
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			writeFail(w, http.StatusBadRequest, "title is required")
			return
		}
		t.Title = *input.Title
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.CategoryID != nil {
		// A categoryId of 0 detaches the todo from its category.
		if *input.CategoryID == 0 {
			t.CategoryID = nil
		} else {
			c, err := app.store.getCategory(*input.CategoryID, id.UserID)
			if err != nil {
				log.Println(err)
				writeServerError(w, "internal server error")
				return
			}
			if c == nil {
				writeFail(w, http.StatusBadRequest, "invalid category or category doesn't belong to user")
				return
			}
			t.CategoryID = input.CategoryID
		}
	}
	if input.StatusID != nil {
		st, err := app.store.getStatusByID(*input.StatusID)
		if err != nil {
			log.Println(err)
			writeServerError(w, "internal server error")
			return
		}
		if st == nil {
			writeFail(w, http.StatusBadRequest, "invalid status")
			return
		}
		t.StatusID = st.ID
	}

	if err := app.store.updateTodo(t); err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}

	tv, err := app.store.getTodoView(t.ID, id.UserID)
	if err != nil || tv == nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	writeSuccess(w, http.StatusOK, tv)
}

// deleteTodoHandler soft-deletes: the row stays, only its status flips to
// "Deleted".
func (app *application) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	todoID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeFail(w, http.StatusBadRequest, "invalid todo id")
		return
	}

	t, err := app.store.getTodo(todoID, id.UserID)
	if err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	if t == nil {
		writeFail(w, http.StatusNotFound, "todo not found")
		return
	}

	deleted, ok := app.resolveStatusLabel(w, statusDeleted)
	if !ok {
		return
	}

	t.StatusID = deleted.ID
	if err := app.store.updateTodo(t); err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	writeSuccess(w, http.StatusOK, "todo marked as deleted successfully")
}
