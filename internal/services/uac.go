package services

import (
	"strings"

	"hostelhub-backend-go/internal/models"
)

const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// BuildRoles inverts groups into roles: every role name listed by a group
// gets that group appended. Roles appear in first-seen order and a group is
// attached to a role at most once.
func BuildRoles(groups []models.Group) []models.Role {
	roles := []models.Role{}
	index := map[string]int{}
	attached := map[string]map[string]bool{}
	for _, group := range groups {
		for _, raw := range group.Roles {
			name := NormalizeRoleName(raw)
			if name == "" {
				continue
			}
			pos, ok := index[name]
			if !ok {
				pos = len(roles)
				index[name] = pos
				roles = append(roles, models.Role{
					Name:        name,
					Groups:      []models.Group{},
					Permissions: map[string][]models.Permission{},
				})
				attached[name] = map[string]bool{}
			}
			key := group.ID
			if key == "" {
				key = group.ModuleID + "/" + group.Name
			}
			if attached[name][key] {
				continue
			}
			attached[name][key] = true
			roles[pos].Groups = append(roles[pos].Groups, group)
		}
	}
	return roles
}

// MergePermissions attaches per-role permissions, keyed by module name.
// Roles without an entry in perms keep an empty map.
func MergePermissions(roles []models.Role, perms map[string][]models.Permission) []models.Role {
	out := make([]models.Role, len(roles))
	for i, role := range roles {
		byModule := map[string][]models.Permission{}
		for _, perm := range perms[role.Name] {
			byModule[perm.ModuleName] = append(byModule[perm.ModuleName], perm)
		}
		role.Permissions = byModule
		out[i] = role
	}
	return out
}

// ApplyPermissionPatch sets one flag on p.
func ApplyPermissionPatch(p *models.Permission, field string, value bool) error {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case ActionRead:
		p.Read = value
	case ActionWrite:
		p.Write = value
	case ActionEdit:
		p.Edit = value
	case ActionDelete:
		p.Delete = value
	default:
		return ErrBadRequest("Unknown permission field")
	}
	return nil
}

func PermissionAllows(p models.Permission, action string) bool {
	switch action {
	case ActionRead:
		return p.Read
	case ActionWrite:
		return p.Write
	case ActionEdit:
		return p.Edit
	case ActionDelete:
		return p.Delete
	}
	return false
}

func permissionColumn(field string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case ActionRead:
		return "can_read", true
	case ActionWrite:
		return "can_write", true
	case ActionEdit:
		return "can_edit", true
	case ActionDelete:
		return "can_delete", true
	}
	return "", false
}

func NormalizeRoleName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
