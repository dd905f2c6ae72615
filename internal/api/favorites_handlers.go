package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/reelnotes/reelnotes-server/internal/domain"
	domainerrors "github.com/reelnotes/reelnotes-server/internal/errors"
	"github.com/reelnotes/reelnotes-server/internal/http/response"
)

const maxRequestBody = 64 << 10

// FavoriteView is one row of the favorites list.
type FavoriteView struct {
	ExternalID int64   `json:"externalId"`
	Title      string  `json:"title"`
	PosterRef  string  `json:"posterRef"`
	Overview   string  `json:"overview"`
	Note       *string `json:"note"`
}

func newFavoriteView(f *domain.Favorite) FavoriteView {
	return FavoriteView{
		ExternalID: f.ExternalID(),
		Title:      f.Item.Title,
		PosterRef:  f.Item.PosterRef,
		Overview:   f.Item.Synopsis,
		Note:       f.Note,
	}
}

type addFavoriteRequest struct {
	ExternalID int64   `json:"externalId" validate:"required,gt=0"`
	Note       *string `json:"note"`
}

type updateNoteRequest struct {
	Note *string `json:"note"`
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.favorites.List(r.Context(), getSession(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	views := make([]FavoriteView, 0, len(favs))
	for _, f := range favs {
		views = append(views, newFavoriteView(f))
	}
	response.Success(w, views, s.logger)
}

// handleAddFavorite answers 201 for both a fresh and an existing favorite.
func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req addFavoriteRequest
	if err := s.decode(w, r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	fav, _, err := s.favorites.Add(r.Context(), getSession(r.Context()), req.ExternalID, req.Note)
	if err != nil {
		s.logUpstream(r, err, req.ExternalID)
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, fav, s.logger)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	externalID, err := s.externalIDParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	var req updateNoteRequest
	if err := s.decode(w, r, &req, "note"); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.favorites.UpdateNote(r.Context(), getSession(r.Context()), externalID, req.Note); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	externalID, err := s.externalIDParam(r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if err := s.favorites.Remove(r.Context(), getSession(r.Context()), externalID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// decode reads a JSON object into dst. A value that does not fit its field is
// reported under the field's JSON name. Names in required must be present,
// null included.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, required ...string) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return domainerrors.Validation("invalid request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return domainerrors.Validation("request body is required")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return domainerrors.Validation("invalid request body")
	}

	missing := make(map[string]string)
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			missing[name] = "is required"
		}
	}
	if len(missing) > 0 {
		return domainerrors.ValidationWithDetails("invalid request body", missing)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fieldTypeError(dst, fields)
	}
	return nil
}

// fieldTypeError names the first field of dst whose JSON value does not decode.
func fieldTypeError(dst any, fields map[string]json.RawMessage) error {
	t := reflect.TypeOf(dst).Elem()
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		raw, ok := fields[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, reflect.New(f.Type).Interface()); err != nil {
			return domainerrors.ValidationWithDetails("invalid request body", map[string]string{
				name: typeHint(f.Type),
			})
		}
	}
	return domainerrors.Validation("invalid request body")
}

func typeHint(t reflect.Type) string {
	nullable := t.Kind() == reflect.Pointer
	if nullable {
		t = t.Elem()
	}

	var hint string
	switch t.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		hint = "must be a positive integer"
	case reflect.String:
		hint = "must be a string"
	default:
		return "is invalid"
	}
	if nullable {
		hint += " or null"
	}
	return hint
}

func (s *Server) externalIDParam(r *http.Request) (int64, error) {
	externalID, err := strconv.ParseInt(chi.URLParam(r, "externalId"), 10, 64)
	if err != nil {
		return 0, domainerrors.ValidationWithDetails("invalid external id", map[string]string{
			"externalId": "must be a positive integer",
		})
	}
	if err := s.validator.Var("externalId", externalID, "gt=0"); err != nil {
		return 0, err
	}
	return externalID, nil
}

func (s *Server) logUpstream(r *http.Request, err error, externalID int64) {
	if errors.Is(err, domainerrors.ErrUpstreamUnavailable) {
		s.logger.Warn("Catalog unavailable while adding favorite",
			"error", err,
			"external_id", externalID,
			"user_id", getSession(r.Context()).UserID,
		)
	}
}
