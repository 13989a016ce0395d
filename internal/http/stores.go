package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storepulse/storepulse/internal/domain"
	"github.com/storepulse/storepulse/internal/repository"
	"github.com/storepulse/storepulse/internal/service"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type storeCreateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	OwnerID string `json:"ownerId"`
}

type storeResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Address       string  `json:"address"`
	OwnerID       string  `json:"ownerId"`
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int64   `json:"totalRatings"`
}

type storeListResponse struct {
	Items []storeResponse `json:"items"`
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

type ratingResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	StoreID   string    `json:"storeId"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ratingListResponse struct {
	Items []ratingResponse `json:"items"`
}

type submitRatingResponse struct {
	Rating ratingResponse `json:"rating"`
	Store  storeResponse  `json:"store"`
}

func (s *Server) handleListStores(w http.ResponseWriter, r *http.Request) {
	filters, err := buildStoreFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	stores, err := s.stores.ListStores(r.Context(), filters)
	if err != nil {
		s.logger.Error("list stores failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list stores")
		return
	}

	items := make([]storeResponse, 0, len(stores))
	for _, store := range stores {
		items = append(items, toStoreResponse(store))
	}
	s.respondJSON(w, http.StatusOK, storeListResponse{Items: items})
}

func buildStoreFilters(query url.Values) (repository.StoreListFilters, error) {
	filters := repository.StoreListFilters{
		Query: strings.TrimSpace(query.Get("q")),
	}
	if val := strings.TrimSpace(query.Get("sort")); val != "" {
		switch val {
		case repository.SortByName, repository.SortByEmail, repository.SortByAddress, repository.SortByRating:
			filters.SortBy = val
		default:
			return filters, fmt.Errorf("invalid sort field %q", val)
		}
	}
	if val := strings.TrimSpace(query.Get("dir")); val != "" {
		switch strings.ToLower(val) {
		case "asc", "desc":
			filters.SortDir = strings.ToLower(val)
		default:
			return filters, fmt.Errorf("invalid sort direction %q", val)
		}
	}
	return filters, nil
}

func (s *Server) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	var req storeCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	store, err := s.stores.AddStore(r.Context(), service.AddStoreParams{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		var verrs domain.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "One or more fields are invalid",
				Details: verrs,
			})
		case errors.Is(err, repository.ErrDuplicateEmail):
			s.respondError(w, http.StatusConflict, "DUPLICATE_EMAIL", "A store with this email already exists")
		default:
			s.logger.Error("create store failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create store")
		}
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/stores/%s", url.PathEscape(store.ID)))
	s.respondJSON(w, http.StatusCreated, toStoreResponse(store))
}

func (s *Server) handleListStoreRatings(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	sess := sessionFromContext(r.Context())

	// Owners only see their own store's feedback; admins see any.
	if sess.User.Role == domain.RoleOwner {
		store, err := s.stores.GetStore(r.Context(), storeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
				return
			}
			s.logger.Error("fetch store for ratings failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list ratings")
			return
		}
		if store.OwnerID != sess.User.ID {
			s.respondError(w, http.StatusForbidden, "FORBIDDEN", "You can only view ratings for your own store")
			return
		}
	}

	ratings, err := s.stores.ListRatings(r.Context(), storeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Error("list ratings failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list ratings")
		return
	}

	items := make([]ratingResponse, 0, len(ratings))
	for _, rating := range ratings {
		items = append(items, toRatingResponse(rating))
	}
	s.respondJSON(w, http.StatusOK, ratingListResponse{Items: items})
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	sess := sessionFromContext(r.Context())

	var req ratingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	store, rating, created, err := s.ratings.SubmitRating(r.Context(), sess, storeID, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			s.respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Missing or invalid authentication information")
		case errors.Is(err, domain.ErrInvalidRatingValue):
			s.respondError(w, http.StatusUnprocessableEntity, "INVALID_RATING", "rating must be an integer between 1 and 5")
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		default:
			s.logger.Error("submit rating failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process rating")
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, submitRatingResponse{
		Rating: toRatingResponse(rating),
		Store:  toStoreResponse(store),
	})
}

func (s *Server) handleGetMyRating(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	sess := sessionFromContext(r.Context())

	rating, err := s.ratings.GetRating(r.Context(), sess, storeID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		case errors.Is(err, domain.ErrInvalidCredentials):
			s.respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Missing or invalid authentication information")
		default:
			s.logger.Error("get rating failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch rating")
		}
		return
	}
	s.respondJSON(w, http.StatusOK, toRatingResponse(rating))
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error("failed to encode response", zap.Error(err))
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func toStoreResponse(store domain.Store) storeResponse {
	return storeResponse{
		ID:            store.ID,
		Name:          store.Name,
		Email:         store.Email,
		Address:       store.Address,
		OwnerID:       store.OwnerID,
		AverageRating: store.AverageRating,
		TotalRatings:  store.TotalRatings,
	}
}

func toRatingResponse(rating domain.Rating) ratingResponse {
	return ratingResponse{
		ID:        rating.ID,
		UserID:    rating.UserID,
		StoreID:   rating.StoreID,
		Rating:    rating.Stars,
		CreatedAt: rating.CreatedAt,
		UpdatedAt: rating.UpdatedAt,
	}
}
