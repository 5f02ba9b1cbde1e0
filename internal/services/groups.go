package services

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"hostelhub-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EnsureModuleGroups seeds one ADMIN-managed group per module so a fresh
// install has a usable permission matrix.
func EnsureModuleGroups(db *sqlx.DB) error {
	modules, err := ListModules(db)
	if err != nil {
		return err
	}
	for _, module := range modules {
		if err := ensureModuleGroup(db, module); err != nil {
			return err
		}
	}
	return nil
}

func ensureModuleGroup(db *sqlx.DB, module models.Module) error {
	name := "Module: " + module.Name
	var exists bool
	if err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM uac_groups WHERE name = $1)`, name); err != nil {
		return err
	}
	if exists {
		return nil
	}
	groupID, err := CreateGroup(db, name, module.ID, nil)
	if err != nil {
		return err
	}
	if err := AssignGroupToRole(db, groupID, models.RoleAdmin); err != nil {
		return err
	}
	_, err = db.Exec(`
UPDATE role_permissions SET can_write = TRUE, can_edit = TRUE, can_delete = TRUE
WHERE role_code = $1 AND module_id = $2
`, models.RoleAdmin, module.ID)
	return err
}

func ListModules(db *sqlx.DB) ([]models.Module, error) {
	modules := []models.Module{}
	err := db.Select(&modules, `SELECT id, name FROM modules ORDER BY name`)
	return modules, err
}

func ListGroups(db *sqlx.DB) ([]models.Group, error) {
	groups := []models.Group{}
	if err := db.Select(&groups, `
SELECT g.id, g.name, g.module_id, m.name AS module_name, g.date_modified
FROM uac_groups g
JOIN modules m ON m.id = g.module_id
ORDER BY g.name
`); err != nil {
		return nil, err
	}
	links := []struct {
		GroupID  string `db:"group_id"`
		RoleCode string `db:"role_code"`
	}{}
	if err := db.Select(&links, `SELECT group_id, role_code FROM uac_group_roles ORDER BY role_code`); err != nil {
		return nil, err
	}
	byGroup := map[string][]string{}
	for _, link := range links {
		byGroup[link.GroupID] = append(byGroup[link.GroupID], link.RoleCode)
	}
	for i := range groups {
		groups[i].Roles = byGroup[groups[i].ID]
		if groups[i].Roles == nil {
			groups[i].Roles = []string{}
		}
	}
	return groups, nil
}

func GetGroup(db *sqlx.DB, groupID string) (models.Group, error) {
	group := models.Group{}
	err := db.Get(&group, `
SELECT g.id, g.name, g.module_id, m.name AS module_name, g.date_modified
FROM uac_groups g
JOIN modules m ON m.id = g.module_id
WHERE g.id = $1
`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrNotFound("Group not found")
	}
	if err != nil {
		return models.Group{}, err
	}
	group.Roles = []string{}
	if err := db.Select(&group.Roles, `SELECT role_code FROM uac_group_roles WHERE group_id = $1 ORDER BY role_code`, groupID); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

func CreateGroup(db *sqlx.DB, name, moduleID string, roles []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrBadRequest("Name is required")
	}
	var moduleExists bool
	if err := db.Get(&moduleExists, `SELECT EXISTS(SELECT 1 FROM modules WHERE id = $1)`, moduleID); err != nil {
		return "", err
	}
	if !moduleExists {
		return "", ErrBadRequest("Module not found")
	}
	id := uuid.NewString()
	if _, err := db.Exec(`
INSERT INTO uac_groups (id, name, module_id, date_modified)
VALUES ($1,$2,$3,$4)
`, id, name, moduleID, time.Now().UTC()); err != nil {
		return "", err
	}
	for _, role := range roles {
		if err := AssignGroupToRole(db, id, role); err != nil {
			return "", err
		}
	}
	return id, nil
}

// UpdateGroup renames the group or moves it to another module. A move is
// refused while roles are linked, since their permission rows belong to the
// old module.
func UpdateGroup(db *sqlx.DB, groupID string, name *string, moduleID *string) error {
	if name != nil && strings.TrimSpace(*name) == "" {
		return ErrBadRequest("Name is required")
	}
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	current, err := lockGroupModule(tx, groupID)
	if err != nil {
		return err
	}
	if moduleID != nil && *moduleID != current {
		var moduleExists bool
		if err := tx.Get(&moduleExists, `SELECT EXISTS(SELECT 1 FROM modules WHERE id = $1)`, *moduleID); err != nil {
			return err
		}
		if !moduleExists {
			return ErrBadRequest("Module not found")
		}
		var linked int
		if err := tx.Get(&linked, `SELECT COUNT(*) FROM uac_group_roles WHERE group_id = $1`, groupID); err != nil {
			return err
		}
		if moduleChangeBlocked(current, moduleID, linked) {
			return ErrConflict("Remove the group's roles before changing its module")
		}
	}
	if _, err := tx.Exec(`
UPDATE uac_groups
SET name = COALESCE($2, name), module_id = COALESCE($3, module_id), date_modified = $4
WHERE id = $1
`, groupID, trimPtr(name), moduleID, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func moduleChangeBlocked(current string, next *string, linkedRoles int) bool {
	return next != nil && *next != current && linkedRoles > 0
}

// DeleteGroup unlinks every role, drops the permission rows no other group
// covers and removes the group in a single transaction.
func DeleteGroup(db *sqlx.DB, groupID string) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	moduleID, err := lockGroupModule(tx, groupID)
	if err != nil {
		return err
	}
	roles := []string{}
	if err := tx.Select(&roles, `SELECT role_code FROM uac_group_roles WHERE group_id = $1`, groupID); err != nil {
		return err
	}
	for _, role := range roles {
		if err := unlinkGroupRole(tx, groupID, moduleID, role); err != nil {
			return err
		}
	}
	res, err := tx.Exec(`DELETE FROM uac_groups WHERE id = $1`, groupID)
	if err != nil {
		return err
	}
	if err := requireAffected(res, "Group not found"); err != nil {
		return err
	}
	return tx.Commit()
}

func lockGroupModule(tx *sqlx.Tx, groupID string) (string, error) {
	var moduleID string
	if err := tx.Get(&moduleID, `SELECT module_id FROM uac_groups WHERE id = $1 FOR UPDATE`, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound("Group not found")
		}
		return "", err
	}
	return moduleID, nil
}

// EnsureRole registers a role code so it can be granted to users.
func EnsureRole(db *sqlx.DB, role string) error {
	_, err := db.Exec(`INSERT INTO roles (id, code) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`, uuid.NewString(), role)
	return err
}

func RoleNames(db *sqlx.DB) ([]string, error) {
	names := []string{}
	err := db.Select(&names, `SELECT code FROM roles ORDER BY code`)
	return names, err
}

// AssignGroupToRole links the group to the role and grants read on the
// group's module when the role had no permission row for it yet.
func AssignGroupToRole(db *sqlx.DB, groupID, role string) error {
	role = NormalizeRoleName(role)
	if role == "" {
		return ErrBadRequest("Role name is required")
	}
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	var moduleID string
	if err := tx.Get(&moduleID, `SELECT module_id FROM uac_groups WHERE id = $1`, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound("Group not found")
		}
		return err
	}
	if _, err := tx.Exec(`INSERT INTO roles (id, code) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`, uuid.NewString(), role); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO uac_group_roles (group_id, role_code) VALUES ($1, $2) ON CONFLICT DO NOTHING`, groupID, role); err != nil {
		return err
	}
	if _, err := tx.Exec(`
INSERT INTO role_permissions (role_code, module_id, can_read, updated_at)
VALUES ($1, $2, TRUE, $3)
ON CONFLICT (role_code, module_id) DO NOTHING
`, role, moduleID, time.Now().UTC()); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE uac_groups SET date_modified = $2 WHERE id = $1`, groupID, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveGroupFromRole unlinks the group. The role's permission row for the
// module goes too once no other linked group covers that module.
func RemoveGroupFromRole(db *sqlx.DB, groupID, role string) error {
	role = NormalizeRoleName(role)
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	moduleID, err := lockGroupModule(tx, groupID)
	if err != nil {
		return err
	}
	if err := unlinkGroupRole(tx, groupID, moduleID, role); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE uac_groups SET date_modified = $2 WHERE id = $1`, groupID, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func unlinkGroupRole(tx *sqlx.Tx, groupID, moduleID, role string) error {
	res, err := tx.Exec(`DELETE FROM uac_group_roles WHERE group_id = $1 AND role_code = $2`, groupID, role)
	if err != nil {
		return err
	}
	if err := requireAffected(res, "Role is not assigned to this group"); err != nil {
		return err
	}
	var stillCovered bool
	if err := tx.Get(&stillCovered, `
SELECT EXISTS(
  SELECT 1 FROM uac_group_roles gr
  JOIN uac_groups g ON g.id = gr.group_id
  WHERE gr.role_code = $1 AND g.module_id = $2
)`, role, moduleID); err != nil {
		return err
	}
	if stillCovered {
		return nil
	}
	_, err = tx.Exec(`DELETE FROM role_permissions WHERE role_code = $1 AND module_id = $2`, role, moduleID)
	return err
}

func PermissionsForRole(db *sqlx.DB, role string) ([]models.Permission, error) {
	perms := []models.Permission{}
	err := db.Select(&perms, `
SELECT rp.module_id, m.name AS module_name, rp.can_read, rp.can_write, rp.can_edit, rp.can_delete
FROM role_permissions rp
JOIN modules m ON m.id = rp.module_id
WHERE rp.role_code = $1
ORDER BY m.name
`, NormalizeRoleName(role))
	return perms, err
}

// AggregatedRoles returns every role built from the group list with its
// permissions merged in.
func AggregatedRoles(db *sqlx.DB) ([]models.Role, error) {
	groups, err := ListGroups(db)
	if err != nil {
		return nil, err
	}
	roles := BuildRoles(groups)
	perms := map[string][]models.Permission{}
	for _, role := range roles {
		items, err := PermissionsForRole(db, role.Name)
		if err != nil {
			return nil, err
		}
		perms[role.Name] = items
	}
	return MergePermissions(roles, perms), nil
}

func UpdateRolePermission(db *sqlx.DB, role, moduleID, field string, value bool) (models.Permission, error) {
	column, ok := permissionColumn(field)
	if !ok {
		return models.Permission{}, ErrBadRequest("Unknown permission field")
	}
	role = NormalizeRoleName(role)
	res, err := db.Exec(`UPDATE role_permissions SET `+column+` = $3, updated_at = $4 WHERE role_code = $1 AND module_id = $2`,
		role, moduleID, value, time.Now().UTC())
	if err != nil {
		return models.Permission{}, err
	}
	if err := requireAffected(res, "Permission not found"); err != nil {
		return models.Permission{}, err
	}
	perm := models.Permission{}
	err = db.Get(&perm, `
SELECT rp.module_id, m.name AS module_name, rp.can_read, rp.can_write, rp.can_edit, rp.can_delete
FROM role_permissions rp
JOIN modules m ON m.id = rp.module_id
WHERE rp.role_code = $1 AND rp.module_id = $2
`, role, moduleID)
	return perm, err
}

// HasPermission reports whether any of roles may perform action on the named
// module. ADMIN always may.
func HasPermission(db *sqlx.DB, roles []string, module, action string) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		role = NormalizeRoleName(role)
		if role == models.RoleAdmin {
			return true, nil
		}
		normalized = append(normalized, role)
	}
	perms := []models.Permission{}
	query, args, err := sqlx.In(`
SELECT rp.module_id, m.name AS module_name, rp.can_read, rp.can_write, rp.can_edit, rp.can_delete
FROM role_permissions rp
JOIN modules m ON m.id = rp.module_id
WHERE m.name = ? AND rp.role_code IN (?)
`, module, normalized)
	if err != nil {
		return false, err
	}
	if err := db.Select(&perms, db.Rebind(query), args...); err != nil {
		return false, err
	}
	for _, perm := range perms {
		if PermissionAllows(perm, action) {
			return true, nil
		}
	}
	return false, nil
}

func requireAffected(res sql.Result, notFound string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound(notFound)
	}
	return nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
