package httpapi

import (
	"net/http"

	"hostelhub-backend-go/internal/models"
	"hostelhub-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type CreateGroupRequest struct {
	Name     string   `json:"name" validate:"required,max=120"`
	ModuleID string   `json:"moduleId" validate:"required"`
	Roles    []string `json:"roles"`
}

type UpdateGroupRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	ModuleID *string `json:"moduleId"`
}

type GroupRoleRequest struct {
	GroupID  string `json:"groupId" validate:"required"`
	RoleName string `json:"roleName" validate:"required"`
}

type RolePermissionPatch struct {
	RoleName string `json:"roleName" validate:"required"`
	ModuleID string `json:"moduleId" validate:"required"`
	Field    string `json:"field" validate:"required,oneof=read write edit delete"`
	Value    bool   `json:"value"`
}

func (s *Server) AdminListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := services.ListGroups(s.DB)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]models.Group{"items": groups})
}

func (s *Server) AdminCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	id, err := services.CreateGroup(s.DB, req.Name, req.ModuleID, req.Roles)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.writeGroup(w, r, http.StatusCreated, id)
}

func (s *Server) AdminGetGroup(w http.ResponseWriter, r *http.Request) {
	s.writeGroup(w, r, http.StatusOK, chi.URLParam(r, "groupId"))
}

func (s *Server) AdminUpdateGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	var req UpdateGroupRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := services.UpdateGroup(s.DB, groupID, req.Name, req.ModuleID); err != nil {
		writeFailure(w, r, err)
		return
	}
	s.writeGroup(w, r, http.StatusOK, groupID)
}

func (s *Server) AdminDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteGroup(s.DB, chi.URLParam(r, "groupId")); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeGroup(w http.ResponseWriter, r *http.Request, status int, groupID string) {
	group, err := services.GetGroup(s.DB, groupID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, status, group)
}

func (s *Server) AdminListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := services.ListModules(s.DB)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]models.Module{"items": modules})
}

func (s *Server) AdminRoleNames(w http.ResponseWriter, r *http.Request) {
	names, err := services.RoleNames(s.DB)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]string{"roles": names})
}

// AdminRoles returns the roles inverted from the group list, each with its
// permissions keyed by module name.
func (s *Server) AdminRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := services.AggregatedRoles(s.DB)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]models.Role{"items": roles})
}

func (s *Server) AdminRolePermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := services.PermissionsForRole(s.DB, chi.URLParam(r, "role"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]models.Permission{"items": perms})
}

func (s *Server) AdminAssignGroupToRole(w http.ResponseWriter, r *http.Request) {
	var req GroupRoleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := services.AssignGroupToRole(s.DB, req.GroupID, req.RoleName); err != nil {
		writeFailure(w, r, err)
		return
	}
	s.writeGroup(w, r, http.StatusOK, req.GroupID)
}

func (s *Server) AdminRemoveGroupFromRole(w http.ResponseWriter, r *http.Request) {
	var req GroupRoleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := services.RemoveGroupFromRole(s.DB, req.GroupID, req.RoleName); err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"groupId": req.GroupID, "roleName": services.NormalizeRoleName(req.RoleName)})
}

func (s *Server) AdminUpdateRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req RolePermissionPatch
	if !s.decodeJSON(w, r, &req) {
		return
	}
	perm, err := services.UpdateRolePermission(s.DB, req.RoleName, req.ModuleID, req.Field, req.Value)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, perm)
}
