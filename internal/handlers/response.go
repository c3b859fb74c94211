package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/kavyalok-backend/internal/logger"
	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/internal/store"
	"github.com/AnshRaj112/kavyalok-backend/pkg/utils"
	"github.com/creasty/defaults"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	requestTimeout = 5 * time.Second
	// uploadTimeout covers handlers that push files to Cloudinary.
	uploadTimeout = 60 * time.Second

	maxJSONBody = 1 << 20
	maxPageSize = 50
)

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("notblank", validators.NotBlank)
	return v
}()

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// H is the payload of a JSON envelope.
type H map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, payload H) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respond writes {"success": true, "message": ..., ...payload}.
func respond(w http.ResponseWriter, status int, message string, payload H) {
	body := H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, H{"success": false, "message": message})
}

// writeFailure maps domain and store errors onto status codes. Anything
// unexpected is logged and reported as a generic 500.
func writeFailure(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *utils.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "Resource already exists")
	case errors.Is(err, models.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, "Invalid status")
	case errors.Is(err, models.ErrIllegalTransition):
		writeError(w, http.StatusConflict, "Status change not allowed: "+errors.Cause(err).Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "The resource was modified concurrently, please retry")
	case errors.Is(err, context.DeadlineExceeded):
		logger.FromContext(r.Context()).WithError(err).Error("request timed out")
		writeError(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		logger.FromContext(r.Context()).WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

// decodeJSON reads a JSON body into dst and runs its validate tags.
func decodeJSON(r *http.Request, dst interface{}) error {
	body := io.LimitReader(r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return utils.NewValidationError("body", "Invalid request body")
	}
	return validateStruct(dst)
}

// decodeForm fills dst from a parsed form. ParseMultipartForm also copies
// the multipart values into PostForm.
func decodeForm(r *http.Request, dst interface{}) error {
	if err := formDecoder.Decode(dst, r.PostForm); err != nil {
		return utils.NewValidationError("form", "Invalid form data")
	}
	return validateStruct(dst)
}

func validateStruct(dst interface{}) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := lowerFirst(fe.Field())
	var msg string
	switch fe.Tag() {
	case "required", "notblank":
		msg = field + " is required"
	case "email":
		msg = "Please provide a valid email"
	case "url", "http_url":
		msg = field + " must be a valid http(s) URL"
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		msg = fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt", "gte":
		msg = fmt.Sprintf("%s must be %s %s", field, map[string]string{"gt": "greater than", "gte": "at least"}[fe.Tag()], fe.Param())
	default:
		msg = field + " is invalid"
	}
	return utils.NewValidationError(field, msg)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

type pageParams struct {
	Page  int `schema:"page" default:"1"`
	Limit int `schema:"limit" default:"10"`
}

// parsePage reads page/limit from the query string. Bad values fall back to
// the defaults; limit is capped at maxPageSize.
func parsePage(r *http.Request) store.Page {
	var p pageParams
	defaults.Set(&p)
	if err := formDecoder.Decode(&p, r.URL.Query()); err != nil {
		p = pageParams{}
		defaults.Set(&p)
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return store.Page{Page: p.Page, Limit: p.Limit}
}

func pagination(page store.Page, total int64) H {
	pages := (total + int64(page.Limit) - 1) / int64(page.Limit)
	return H{
		"page":  page.Page,
		"limit": page.Limit,
		"total": total,
		"pages": pages,
	}
}

// objectIDParam parses a hex ObjectID route parameter, writing a 400 when it is malformed.
func objectIDParam(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}
