package client

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"hostelhub-backend-go/internal/models"
	"hostelhub-backend-go/internal/services"

	"golang.org/x/sync/errgroup"
)

// UAC is the local view of roles, groups and permissions.
//
//	TogglePermission: patch locally, then send; refetch everything on failure
//	RemoveGroup:      patch locally, then send; refetch everything on failure
//	AssignGroup:      send, then refetch everything
type UAC struct {
	c     *Client
	Roles []models.Role
}

func (c *Client) UAC() *UAC {
	return &UAC{c: c}
}

// Load rebuilds Roles from the group list and each role's permissions.
func (u *UAC) Load(ctx context.Context) error {
	var groups struct {
		Items []models.Group `json:"items"`
	}
	if err := u.c.getJSON(ctx, "/api/admin/groups", &groups); err != nil {
		return err
	}
	roles := services.BuildRoles(groups.Items)

	var mu sync.Mutex
	perms := map[string][]models.Permission{}
	g, gctx := errgroup.WithContext(ctx)
	for _, role := range roles {
		name := role.Name
		g.Go(func() error {
			var resp struct {
				Items []models.Permission `json:"items"`
			}
			if err := u.c.getJSON(gctx, "/api/admin/permissions/"+url.PathEscape(name), &resp); err != nil {
				return err
			}
			mu.Lock()
			perms[name] = resp.Items
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	u.Roles = services.MergePermissions(roles, perms)
	return nil
}

func (u *UAC) role(name string) *models.Role {
	name = services.NormalizeRoleName(name)
	for i := range u.Roles {
		if u.Roles[i].Name == name {
			return &u.Roles[i]
		}
	}
	return nil
}

// TogglePermission flips one action flag for role on module.
func (u *UAC) TogglePermission(ctx context.Context, roleName, moduleID, field string) error {
	value, err := u.flip(roleName, moduleID, field)
	if err != nil {
		return err
	}
	patch := map[string]interface{}{"roleName": roleName, "moduleId": moduleID, "field": field, "value": value}
	if err := u.c.doJSON(ctx, http.MethodPut, "/api/admin/update-role-permissions", patch, nil, true); err != nil {
		return u.reconcile(ctx, err)
	}
	return nil
}

func (u *UAC) flip(roleName, moduleID, field string) (bool, error) {
	role := u.role(roleName)
	if role == nil {
		return false, services.ErrNotFound("Role not found")
	}
	for name, items := range role.Permissions {
		for i := range items {
			if items[i].ModuleID != moduleID {
				continue
			}
			next := !services.PermissionAllows(items[i], field)
			if err := services.ApplyPermissionPatch(&items[i], field, next); err != nil {
				return false, err
			}
			role.Permissions[name] = items
			return next, nil
		}
	}
	return false, services.ErrNotFound("Permission not found")
}

func (u *UAC) RemoveGroup(ctx context.Context, roleName, groupID string) error {
	if role := u.role(roleName); role != nil {
		kept := role.Groups[:0]
		for _, g := range role.Groups {
			if g.ID != groupID {
				kept = append(kept, g)
			}
		}
		role.Groups = kept
	}
	body := map[string]string{"groupId": groupID, "roleName": roleName}
	if err := u.c.doJSON(ctx, http.MethodPost, "/api/admin/remove-permission-from-role", body, nil, true); err != nil {
		return u.reconcile(ctx, err)
	}
	return nil
}

func (u *UAC) AssignGroup(ctx context.Context, roleName, groupID string) error {
	body := map[string]string{"groupId": groupID, "roleName": roleName}
	if err := u.c.doJSON(ctx, http.MethodPost, "/api/admin/assign-group-to-role", body, nil, true); err != nil {
		return err
	}
	return u.Load(ctx)
}

// reconcile replaces the optimistic local state with the server's after a
// failed mutation and reports the original failure.
func (u *UAC) reconcile(ctx context.Context, cause error) error {
	_ = u.Load(ctx)
	return cause
}
