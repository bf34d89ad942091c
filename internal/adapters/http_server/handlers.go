// internal/adapters/http_server/handlers.go
package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"flexreviews/internal/app"
	"flexreviews/internal/domain"
)

type Handlers struct {
	Reviews    *app.ReviewService
	Moderation *app.ModerationService
	Places     *app.PlacesService
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api/reviews/hostaway", func(r chi.Router) {
		r.Get("/", h.listReviews)
		r.Patch("/", h.setApproval)
		r.Get("/stats", h.stats)
		r.Get("/facets", h.facets)
	})
	s.mux.Get("/api/properties/{name}/reviews", h.propertyReviews)
	s.mux.Get("/api/google-reviews", h.googleReviews)
}

type reviewsResponse struct {
	Reviews []domain.NormalizedReview `json:"reviews"`
}

type approvalRequest struct {
	ID       *int64 `json:"id" validate:"required"`
	Approved *bool  `json:"approved" validate:"required"`
}

// optional treats "" and the dashboard's "All" as no filter.
func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "all") {
		return nil
	}
	return &v
}

func parseQuery(r *http.Request) (app.Filters, app.SortOrder, error) {
	q := r.URL.Query()
	f := app.Filters{
		Property: optional(q.Get("property")),
		Category: optional(q.Get("category")),
		Channel:  optional(q.Get("channel")),
	}
	if s := optional(q.Get("minRating")); s != nil {
		v, err := strconv.ParseFloat(*s, 64)
		if err != nil {
			return app.Filters{}, "", err
		}
		f.MinRating = &v
	}
	if s := optional(q.Get("approved")); s != nil {
		v, err := strconv.ParseBool(*s)
		if err != nil {
			return app.Filters{}, "", err
		}
		f.Approved = &v
	}
	order, err := app.ParseSortOrder(q.Get("sort"))
	if err != nil {
		return app.Filters{}, "", err
	}
	return f, order, nil
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	f, order, err := parseQuery(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}
	out, err := h.Reviews.Query(r.Context(), f, order)
	if err != nil {
		log.Error().Err(err).Msg("list reviews failed")
		writeProblem(w, http.StatusServiceUnavailable, "Reviews unavailable", "review data could not be loaded")
		return
	}
	writeCached(w, r, reviewsResponse{Reviews: out})
}

func (h *Handlers) setApproval(w http.ResponseWriter, r *http.Request) {
	var req approvalRequest
	if err := readJSON(w, r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	ok, err := h.Moderation.Set(r.Context(), *req.ID, *req.Approved)
	if err != nil {
		log.Error().Err(err).Int64("id", *req.ID).Msg("approval update failed")
		writeProblem(w, http.StatusInternalServerError, "Update failed", "approval could not be saved")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Reviews.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("stats failed")
		writeProblem(w, http.StatusServiceUnavailable, "Reviews unavailable", "review data could not be loaded")
		return
	}
	writeCached(w, r, map[string]any{"properties": out})
}

func (h *Handlers) facets(w http.ResponseWriter, r *http.Request) {
	out, err := h.Reviews.Facets(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("facets failed")
		writeProblem(w, http.StatusServiceUnavailable, "Reviews unavailable", "review data could not be loaded")
		return
	}
	writeCached(w, r, out)
}

// propertyReviews serves the public property page: approved reviews only.
func (h *Handlers) propertyReviews(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid property", "property name is required")
		return
	}
	approved := true
	out, err := h.Reviews.Query(r.Context(), app.Filters{Property: &name, Approved: &approved}, app.SortDateDesc)
	if err != nil {
		log.Error().Err(err).Str("property", name).Msg("property reviews failed")
		writeProblem(w, http.StatusServiceUnavailable, "Reviews unavailable", "review data could not be loaded")
		return
	}
	writeCached(w, r, reviewsResponse{Reviews: out})
}

func (h *Handlers) googleReviews(w http.ResponseWriter, r *http.Request) {
	placeID := strings.TrimSpace(r.URL.Query().Get("placeId"))
	if placeID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing placeId"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.PlaceSummary{"result": h.Places.Summary(r.Context(), placeID)})
}
