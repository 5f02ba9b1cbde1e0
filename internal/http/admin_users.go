package httpapi

import (
	"net/http"
	"strings"

	"hostelhub-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type AssignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type UserStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := parseInt(r.URL.Query().Get("page"), 1)
	pageSize := parseInt(r.URL.Query().Get("pageSize"), 10)
	if pageSize > 100 {
		pageSize = 100
	}
	result, err := services.ListUsers(s.DB, strings.TrimSpace(r.URL.Query().Get("search")), page, pageSize)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	var req AssignRoleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := services.AssignUserRole(s.DB, userID, req.Role); err != nil {
		writeFailure(w, r, err)
		return
	}
	s.writeUser(w, r, userID)
}

func (s *Server) RemoveRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	role := services.NormalizeRoleName(chi.URLParam(r, "role"))
	if userID == CurrentUserID(r) && role == "ADMIN" {
		WriteError(w, http.StatusBadRequest, "Cannot remove your own admin role")
		return
	}
	if err := services.RemoveUserRole(s.DB, userID, role); err != nil {
		writeFailure(w, r, err)
		return
	}
	s.writeUser(w, r, userID)
}

func (s *Server) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	var req UserStatusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if userID == CurrentUserID(r) {
		WriteError(w, http.StatusBadRequest, "Cannot change your own status")
		return
	}
	if err := services.SetUserStatus(s.DB, userID, req.Status); err != nil {
		writeFailure(w, r, err)
		return
	}
	s.writeUser(w, r, userID)
}

func (s *Server) writeUser(w http.ResponseWriter, r *http.Request, userID string) {
	userDTO, err := buildUserDTO(s.DB, userID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]*UserDTO{"user": userDTO})
}
