package httpserver

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/storepulse/storepulse/internal/domain"
	"github.com/storepulse/storepulse/internal/identity"
	"github.com/storepulse/storepulse/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

type passwordChangeRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
	Role  domain.Role  `json:"role"`
	View  domain.View  `json:"view"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	sess, err := s.sessions.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
			return
		}
		s.logger.Error("login failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Identity service is unavailable")
		return
	}

	s.respondJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	var verrs domain.ValidationErrors
	if fe := domain.ValidateUserName(req.Name); fe != nil {
		verrs = append(verrs, *fe)
	}
	if fe := domain.ValidateEmail(req.Email); fe != nil {
		verrs = append(verrs, *fe)
	}
	if fe := domain.ValidateAddress(req.Address); fe != nil {
		verrs = append(verrs, *fe)
	}
	if fe := domain.ValidatePassword(req.Password); fe != nil {
		verrs = append(verrs, *fe)
	}
	if len(verrs) > 0 {
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "One or more fields are invalid",
			Details: verrs,
		})
		return
	}

	sess, err := s.sessions.Signup(r.Context(), identity.SignupParams{
		Name:     req.Name,
		Email:    req.Email,
		Address:  req.Address,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			s.respondError(w, http.StatusConflict, "DUPLICATE_EMAIL", "An account with this email already exists")
			return
		}
		s.logger.Error("signup failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Identity service is unavailable")
		return
	}

	s.respondJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.EndSession(r.Context(), bearerToken(r)); err != nil {
		s.logger.Error("logout failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to end session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSession reports the caller's role and dashboard variant. Without a
// valid session it still answers 200 with role NONE and the login view, which
// is how clients decide what to render.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	role := s.sessions.Role(sess)
	resp := sessionResponse{
		Role: role,
		View: domain.ViewForRole(role),
	}
	if sess != nil {
		resp.User = &sess.User
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if sess == nil {
		s.respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Missing or invalid authentication information")
		return
	}

	var req passwordChangeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if fe := domain.ValidatePassword(req.Password); fe != nil {
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "One or more fields are invalid",
			Details: domain.ValidationErrors{*fe},
		})
		return
	}

	if err := s.sessions.ChangePassword(r.Context(), sess, req.Password); err != nil {
		s.logger.Error("change password failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Identity service is unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toSessionResponse(sess *session.Session) sessionResponse {
	return sessionResponse{
		Token: sess.Token,
		User:  &sess.User,
		Role:  sess.User.Role,
		View:  domain.ViewForRole(sess.User.Role),
	}
}
