package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

const bearerPrefix = "Bearer "

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// writeResponse emits the `{"message": ..., <data fields>}` envelope every
// endpoint uses, for both successes and failures.
func writeResponse(w http.ResponseWriter, status int, message string, data map[string]any) {
	body := map[string]any{"message": message}
	for k, v := range data {
		body[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeResponse(w, http.StatusInternalServerError, "Internal server error: "+err.Error(), nil)
}

// bearerToken extracts the token from the Authorization header. The header
// name lookup is case-insensitive already; the scheme match is made
// case-insensitive here.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if len(header) <= len(bearerPrefix) {
		return "", common.ErrorInvalidAuthHeaderFormat
	}
	if !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", common.ErrorInvalidAuthHeaderFormat
	}
	return header[len(bearerPrefix):], nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// An unreadable body carries no fields, same as an empty one.
		s.logger.Debug(r.Context(), "register body decode failed", "error", err.Error())
	}

	userID, err := s.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			writeResponse(w, http.StatusBadRequest, "Missing name, email or password", nil)
		case errors.Is(err, common.ErrorEmailExists):
			writeResponse(w, http.StatusConflict, "Email already registered", nil)
		default:
			s.logger.Error(r.Context(), err.Error())
			writeInternalError(w, err)
		}
		return
	}

	writeResponse(w, http.StatusCreated, "User registered successfully", map[string]any{
		"userId": userID,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Debug(r.Context(), "login body decode failed", "error", err.Error())
	}

	result, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			writeResponse(w, http.StatusBadRequest, "Missing email or password", nil)
		case errors.Is(err, common.ErrorUnauthorized):
			writeResponse(w, http.StatusUnauthorized, "Invalid email or password", nil)
		default:
			s.logger.Error(r.Context(), err.Error())
			writeInternalError(w, err)
		}
		return
	}

	writeResponse(w, http.StatusOK, "Login successful", map[string]any{
		"token":    result.Token,
		"userId":   result.UserID,
		"name":     result.Name,
		"email":    result.Email,
		"role":     result.Role,
		"isActive": result.IsActive,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {

	token, err := bearerToken(r)
	if err != nil {
		writeResponse(w, http.StatusUnauthorized, "Missing or invalid authorization header", nil)
		return
	}

	user, err := s.users.GetProfile(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			writeResponse(w, http.StatusUnauthorized, "Token has expired", nil)
		case errors.Is(err, common.ErrInvalidToken):
			writeResponse(w, http.StatusUnauthorized, "Invalid token", nil)
		case errors.Is(err, common.ErrorNoUserID):
			writeResponse(w, http.StatusUnauthorized, "Unauthorized: userId not found in token", nil)
		case errors.Is(err, common.ErrorNotFound):
			writeResponse(w, http.StatusNotFound, "User not found", nil)
		default:
			s.logger.Error(r.Context(), err.Error())
			writeInternalError(w, err)
		}
		return
	}

	data := map[string]any{
		"userId":   user.UserID,
		"name":     user.Name,
		"email":    user.Email,
		"role":     user.Role,
		"isActive": user.IsActive,
	}
	// Records that predate the createdAt attribute have no timestamp; the
	// field is omitted rather than serialized as the zero time.
	if !user.CreatedAt.IsZero() {
		data["createdAt"] = user.CreatedAt
	}

	writeResponse(w, http.StatusOK, "User retrieved successfully", data)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, http.StatusOK, "OK", nil)
}
