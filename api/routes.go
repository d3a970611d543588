package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /users/signup", app.signupHandler)
	mux.HandleFunc("POST /users/login", app.loginHandler)

	mux.HandleFunc("GET /category", app.requireAuth(app.getCategoriesHandler))
	mux.HandleFunc("POST /category", app.requireAuth(app.createCategoryHandler))
	mux.HandleFunc("PUT /category/{id}", app.requireAuth(app.updateCategoryHandler))
	mux.HandleFunc("DELETE /category/{id}", app.requireAuth(app.deleteCategoryHandler))

	mux.HandleFunc("GET /todos", app.requireAuth(app.getActiveTodosHandler))
	mux.HandleFunc("GET /todos/all", app.requireAuth(app.getAllTodosHandler))
	mux.HandleFunc("GET /todos/deleted", app.requireAuth(app.getDeletedTodosHandler))
	mux.HandleFunc("GET /todos/statuses", app.requireAuth(app.getStatusesHandler))
	mux.HandleFunc("POST /todos", app.requireAuth(app.createTodoHandler))
	mux.HandleFunc("PUT /todos/{id}", app.requireAuth(app.updateTodoHandler))
	mux.HandleFunc("DELETE /todos/{id}", app.requireAuth(app.deleteTodoHandler))

	var handler http.Handler = app.enableCORS(mux)
	if app.config.limiter.enabled {
		handler = app.rateLimit(handler)
	}
	return handler
}
