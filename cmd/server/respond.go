package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/Simplici0/movequote/internal/apperr"
)

const maxBodyBytes = 1 << 20

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write json response: %v", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{"success": true, "data": data})
}

func errorBody(err error) envelope {
	return envelope{"success": false, "error": apperr.Code(err), "message": apperr.PublicMessage(err)}
}

// writeError maps err to its status. Details of 5xx errors are logged and
// never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorWith(w, r, err, nil)
}

// writeErrorWith is writeError with extra fields merged into the body.
func writeErrorWith(w http.ResponseWriter, r *http.Request, err error, extra envelope) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
	}
	body := errorBody(err)
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized", "message": message})
}

func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Validation("body", "could not be read")
	}
	if len(body) == 0 {
		return apperr.Validation("body", "is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperr.Validation("body", "is malformed: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id", "must be a positive integer")
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, apperr.Validation(name, "must be a positive integer")
	}
	return id, nil
}
