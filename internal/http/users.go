package httpserver

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/storepulse/storepulse/internal/domain"
)

type userListResponse struct {
	Users []domain.User `json:"users"`
}

type adminStatsResponse struct {
	TotalUsers   int   `json:"totalUsers"`
	TotalStores  int64 `json:"totalStores"`
	TotalRatings int64 `json:"totalRatings"`
}

// handleListUsers proxies the identity collaborator's read-only user listing
// for the administrator view.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.identity.ListUsers(r.Context())
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Identity service is unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, userListResponse{Users: users})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	users, err := s.identity.ListUsers(r.Context())
	if err != nil {
		s.logger.Error("stats: list users failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Identity service is unavailable")
		return
	}
	totalStores, err := s.repo.Stores.Count(r.Context())
	if err != nil {
		s.logger.Error("stats: count stores failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute stats")
		return
	}
	totalRatings, err := s.repo.Ratings.Count(r.Context())
	if err != nil {
		s.logger.Error("stats: count ratings failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute stats")
		return
	}

	s.respondJSON(w, http.StatusOK, adminStatsResponse{
		TotalUsers:   len(users),
		TotalStores:  totalStores,
		TotalRatings: totalRatings,
	})
}
