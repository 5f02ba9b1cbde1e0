package httpapi

import (
	"net/http"

	"hostelhub-backend-go/internal/services"
)

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	userDTO, err := buildUserDTO(s.DB, CurrentUserID(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]*UserDTO{"user": userDTO})
}

func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	var req ChangePasswordRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		WriteError(w, http.StatusBadRequest, "Password confirmation does not match")
		return
	}
	user, err := services.GetUser(s.DB, userID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if !s.Tokens.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	hash, err := s.Tokens.HashPassword(req.NewPassword)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := services.SetPassword(s.DB, userID, hash); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Ping(w http.ResponseWriter, r *http.Request) {
	_ = services.TouchLastSeen(s.DB, CurrentUserID(r))
	w.WriteHeader(http.StatusNoContent)
}
