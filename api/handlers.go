package main

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 10000
	pbkdf2KeyLength  = 64
	saltLength       = 16
)

func hashPassword(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLength, sha512.New)
}

func verifyPassword(password string, salt, hash []byte) bool {
	candidate := hashPassword(password, salt)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	healthCheck := struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		Version     string `json:"version"`
	}{
		Status:      "available",
		Environment: app.config.env,
		Version:     version,
	}
	writeSuccess(w, http.StatusOK, healthCheck)
}

func (app *application) signupHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	v := newValidator()
	v.checkName(input.Name, "name")
	v.checkEmail(input.Email)
	v.checkPassword(input.Password)
	if v.hasErrors() {
		writeFail(w, http.StatusBadRequest, v.errors)
		return
	}

	existing, err := app.store.getUserByEmail(input.Email)
	if err != nil {
		log.Println(err)
		writeServerError(w, "an error occurred during signup")
		return
	}
	if existing != nil {
		writeFail(w, http.StatusBadRequest, "user with this email already exists")
		return
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		log.Println(err)
		writeServerError(w, "an error occurred during signup")
		return
	}
	u := &user{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashPassword(input.Password, salt),
		Salt:         salt,
	}
	err = app.store.createUser(u)
	if err != nil {
		if isUniqueViolation(err) {
			writeFail(w, http.StatusBadRequest, "user with this email already exists")
			return
		}
		log.Println(err)
		writeServerError(w, "an error occurred during signup")
		return
	}

	token, err := generateToken([]byte(app.config.jwtSecret), u)
	if err != nil {
		log.Println(err)
		writeServerError(w, "an error occurred during signup")
		return
	}

	if app.mailer != nil {
		go func() {
			if err := app.mailer.send(u.Email, welcomeTmpl, u); err != nil {
				log.Println(err)
			}
		}()
	}

	writeSuccess(w, http.StatusCreated, map[string]any{
		"userId": u.ID,
		"email":  u.Email,
		"token":  token,
	})
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil || input.Email == "" || input.Password == "" {
		writeFail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := app.store.getUserByEmail(input.Email)
	if err != nil {
		log.Println(err)
		writeServerError(w, "an error occurred during login")
		return
	}
	// Unknown email and wrong password answer identically.
	if u == nil || !verifyPassword(input.Password, u.Salt, u.PasswordHash) {
		writeFail(w, http.StatusUnauthorized, "authentication failed")
		return
	}

	token, err := generateToken([]byte(app.config.jwtSecret), u)
	if err != nil {
		log.Println(err)
		writeServerError(w, "an error occurred during login")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"userId": u.ID,
		"email":  u.Email,
		"token":  token,
	})
}
