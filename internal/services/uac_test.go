package services

import (
	"testing"

	"hostelhub-backend-go/internal/models"
)

func TestBuildRolesInvertsGroups(t *testing.T) {
	groups := []models.Group{
		{ID: "g1", Name: "Hostel moderators", ModuleName: "hostels", Roles: []string{"ADMIN", "MODERATOR"}},
		{ID: "g2", Name: "Student desk", ModuleName: "students", Roles: []string{"MODERATOR"}},
		{ID: "g3", Name: "Wishlist review", ModuleName: "wishlist", Roles: []string{"ADMIN", "ADMIN", " "}},
	}
	roles := BuildRoles(groups)

	for _, g := range groups {
		for _, r := range g.Roles {
			if r == " " {
				continue
			}
			found := false
			for _, role := range roles {
				if role.Name != r {
					continue
				}
				for _, rg := range role.Groups {
					if rg.ID == g.ID {
						found = true
					}
				}
			}
			if !found {
				t.Fatalf("role %s missing group %s", r, g.ID)
			}
		}
	}

	seen := map[string]bool{}
	for _, role := range roles {
		if seen[role.Name] {
			t.Fatalf("role %s appears twice", role.Name)
		}
		seen[role.Name] = true
	}
	if len(roles) != 2 || roles[0].Name != "ADMIN" || roles[1].Name != "MODERATOR" {
		t.Fatalf("unexpected roles %+v", roles)
	}
	if len(roles[0].Groups) != 2 {
		t.Fatalf("ADMIN should hold g1 and g3 once each, got %d groups", len(roles[0].Groups))
	}
}

func TestBuildRolesIsIdempotentOnRepeatedGroups(t *testing.T) {
	g := models.Group{ID: "g1", ModuleName: "hostels", Roles: []string{"ADMIN"}}
	roles := BuildRoles([]models.Group{g, g})
	if len(roles) != 1 || len(roles[0].Groups) != 1 {
		t.Fatalf("expected single role with single group, got %+v", roles)
	}
}

func TestMergePermissionsKeysByModule(t *testing.T) {
	roles := BuildRoles([]models.Group{{ID: "g1", ModuleName: "hostels", Roles: []string{"ADMIN", "OWNER"}}})
	perms := map[string][]models.Permission{
		"ADMIN": {
			{ModuleID: "m1", ModuleName: "hostels", Read: true, Write: true},
			{ModuleID: "m2", ModuleName: "students", Read: true},
		},
	}
	merged := MergePermissions(roles, perms)
	if len(merged[0].Permissions) != 2 || !merged[0].Permissions["hostels"][0].Write {
		t.Fatalf("unexpected admin permissions %+v", merged[0].Permissions)
	}
	if merged[1].Permissions == nil || len(merged[1].Permissions) != 0 {
		t.Fatalf("owner should have empty permission map, got %+v", merged[1].Permissions)
	}
}

func TestApplyPermissionPatch(t *testing.T) {
	p := models.Permission{Read: true}
	if err := ApplyPermissionPatch(&p, "Delete", true); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !p.Delete || !p.Read || p.Write || p.Edit {
		t.Fatalf("unexpected permission %+v", p)
	}
	if err := ApplyPermissionPatch(&p, "execute", true); err == nil {
		t.Fatalf("expected error for unknown field")
	}
	for _, action := range []string{ActionRead, ActionDelete} {
		if !PermissionAllows(p, action) {
			t.Fatalf("expected %s allowed", action)
		}
	}
	if PermissionAllows(p, ActionWrite) || PermissionAllows(p, "other") {
		t.Fatalf("unexpected allow")
	}
}

func TestBuildRolesNormalizesNames(t *testing.T) {
	groups := []models.Group{
		{ID: "g1", ModuleName: "hostels", Roles: []string{"moderator"}},
		{ID: "g2", ModuleName: "students", Roles: []string{" Moderator "}},
	}
	roles := BuildRoles(groups)
	if len(roles) != 1 || roles[0].Name != "MODERATOR" || len(roles[0].Groups) != 2 {
		t.Fatalf("expected one MODERATOR role with both groups, got %+v", roles)
	}
}
