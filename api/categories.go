package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
)

func (app *application) getCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	categories, err := app.store.getCategories(id.UserID)
	if err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	writeSuccess(w, http.StatusOK, categories)
}

func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	var input struct {
		Name string `json:"name"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil || strings.TrimSpace(input.Name) == "" {
		writeFail(w, http.StatusBadRequest, "category name is required")
		return
	}

	existing, err := app.store.getCategoryByName(id.UserID, input.Name)
	if err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	if existing != nil {
		writeFail(w, http.StatusBadRequest, "category with this name already exists")
		return
	}

	c := &category{
		UserID: id.UserID,
		Name:   input.Name,
	}
	err = app.store.createCategory(c)
	if err != nil {
		if isUniqueViolation(err) {
			writeFail(w, http.StatusBadRequest, "category with this name already exists")
			return
		}
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	writeSuccess(w, http.StatusCreated, c)
}

func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	categoryID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeFail(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var input struct {
		Name string `json:"name"`
	}
	err = json.NewDecoder(r.Body).Decode(&input)
	if err != nil || strings.TrimSpace(input.Name) == "" {
		writeFail(w, http.StatusBadRequest, "category name is required")
		return
	}

	c, err := app.store.getCategory(categoryID, id.UserID)
	if err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	if c == nil {
		writeFail(w, http.StatusNotFound, "category not found")
		return
	}

	existing, err := app.store.getCategoryByName(id.UserID, input.Name)
	if err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	if existing != nil && existing.ID != c.ID {
		writeFail(w, http.StatusBadRequest, "another category with this name already exists")
		return
	}

	c.Name = input.Name
	err = app.store.updateCategory(c)
	if err != nil {
		if isUniqueViolation(err) {
			writeFail(w, http.StatusBadRequest, "another category with this name already exists")
			return
		}
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	writeSuccess(w, http.StatusOK, c)
}

func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromRequest(r)
	categoryID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeFail(w, http.StatusBadRequest, "invalid category id")
		return
	}

	c, err := app.store.getCategory(categoryID, id.UserID)
	if err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	if c == nil {
		writeFail(w, http.StatusNotFound, "category not found")
		return
	}

	inUse, err := app.store.categoryInUse(c.ID)
	if err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	if inUse {
		writeFail(w, http.StatusBadRequest, "cannot delete category because it is assigned to one or more todos")
		return
	}

	err = app.store.deleteCategory(c.ID, id.UserID)
	if err != nil {
		log.Println(err)
		writeServerError(w, "internal server error")
		return
	}
	writeSuccess(w, http.StatusOK, "category deleted successfully")
}
