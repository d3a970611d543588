package main

import (
	"encoding/json"
	"log"
	"net/http"
)

// Every response takes one of three envelope shapes:
//
//	{"status": "success", "data": {"statusCode": N, "result": ...}}
//	{"status": "fail",    "data": {"statusCode": N, "result": ...}}   client fault
//	{"status": "error",   "message": "...", "data": {"statusCode": 500}}  server fault
//
// The statusCode inside the body always mirrors the HTTP status.
type envelopeData struct {
	StatusCode int `json:"statusCode"`
	Result     any `json:"result"`
}

type envelope struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Data    envelopeData `json:"data"`
}

func writeEnvelope(w http.ResponseWriter, statusCode int, e envelope) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func writeSuccess(w http.ResponseWriter, statusCode int, result any) {
	writeEnvelope(w, statusCode, envelope{
		Status: "success",
		Data:   envelopeData{StatusCode: statusCode, Result: result},
	})
}

func writeFail(w http.ResponseWriter, statusCode int, result any) {
	writeEnvelope(w, statusCode, envelope{
		Status: "fail",
		Data:   envelopeData{StatusCode: statusCode, Result: result},
	})
}

func writeServerError(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusInternalServerError, envelope{
		Status:  "error",
		Message: message,
		Data:    envelopeData{StatusCode: http.StatusInternalServerError},
	})
}
