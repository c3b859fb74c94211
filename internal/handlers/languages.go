package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/internal/store"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LanguageStore interface {
	CreateLanguage(ctx context.Context, l *models.Language) error
	ListLanguages(ctx context.Context) ([]models.Language, error)
	LanguageByID(ctx context.Context, id primitive.ObjectID) (*models.Language, error)
	UpdateLanguage(ctx context.Context, id primitive.ObjectID, mainCategory string, subs []models.SubLanguage) (*models.Language, error)
	DeleteLanguage(ctx context.Context, id primitive.ObjectID) error
	DeleteSubLanguage(ctx context.Context, id, subID primitive.ObjectID) (*models.Language, error)
}

type LanguageHandler struct {
	Languages LanguageStore
}

type SubLanguageInput struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type LanguageRequest struct {
	MainCategory string             `json:"mainCategory" validate:"notblank,max=100"`
	SubLanguages []SubLanguageInput `json:"subLanguages" validate:"dive"`
}

type LanguageUpdateRequest struct {
	MainCategory string              `json:"mainCategory" validate:"max=100"`
	SubLanguages *[]SubLanguageInput `json:"subLanguages"`
}

func toSubLanguages(in []SubLanguageInput) []models.SubLanguage {
	out := make([]models.SubLanguage, 0, len(in))
	for _, s := range in {
		out = append(out, models.SubLanguage{
			Name:        strings.TrimSpace(s.Name),
			Description: strings.TrimSpace(s.Description),
		})
	}
	return out
}

func normalizeMainCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (h *LanguageHandler) CreateLanguage(w http.ResponseWriter, r *http.Request) {
	var req LanguageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	lang := &models.Language{
		MainCategory: normalizeMainCategory(req.MainCategory),
		SubLanguages: toSubLanguages(req.SubLanguages),
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := h.Languages.CreateLanguage(ctx, lang); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Language already exists")
			return
		}
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusCreated, "Language created successfully", H{"language": lang})
}

func (h *LanguageHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	languages, err := h.Languages.ListLanguages(ctx)
	if err != nil {
		writeFailure(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, "", H{"languages": languages, "count": len(languages)})
}

func (h *LanguageHandler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	lang, err := h.Languages.LanguageByID(ctx, id)
	if err != nil {
		writeFailure(w, r, err, "Language not found")
		return
	}
	respond(w, http.StatusOK, "", H{"language": lang})
}

// UpdateLanguage renames the main category and/or replaces the sub-language list.
func (h *LanguageHandler) UpdateLanguage(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	var req LanguageUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err, "")
		return
	}
	var subs []models.SubLanguage
	if req.SubLanguages != nil {
		for _, s := range *req.SubLanguages {
			if err := validateStruct(&s); err != nil {
				writeFailure(w, r, err, "")
				return
			}
		}
		subs = toSubLanguages(*req.SubLanguages)
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	lang, err := h.Languages.UpdateLanguage(ctx, id, normalizeMainCategory(req.MainCategory), subs)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Language already exists")
			return
		}
		writeFailure(w, r, err, "Language not found")
		return
	}
	respond(w, http.StatusOK, "Language updated successfully", H{"language": lang})
}

func (h *LanguageHandler) DeleteLanguage(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := h.Languages.DeleteLanguage(ctx, id); err != nil {
		writeFailure(w, r, err, "Language not found")
		return
	}
	respond(w, http.StatusOK, "Language deleted successfully", nil)
}

func (h *LanguageHandler) DeleteSubLanguage(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(w, r, "id")
	if !ok {
		return
	}
	subID, ok := objectIDParam(w, r, "subId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	lang, err := h.Languages.DeleteSubLanguage(ctx, id, subID)
	if err != nil {
		writeFailure(w, r, err, "Sub-language not found")
		return
	}
	respond(w, http.StatusOK, "Sub-language deleted successfully", H{"language": lang})
}
