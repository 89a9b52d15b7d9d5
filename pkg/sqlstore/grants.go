package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/serioese/servicekit/pkg/identity"
)

// ObjectKeyer gives a permission-check target a stable key for scoped
// grants. Objects without one can only be covered by global grants.
type ObjectKeyer interface {
	PermissionObjectKey() string
}

// Grants answers permission checks from a grant table with the columns
// profile_id, permission and object_key (nullable; NULL means the grant
// is global).
//
// Every check queries the database, so grant changes are effective
// immediately without cache invalidation. Super users bypass the table.
type Grants struct {
	db    *sql.DB
	table string
}

// NewGrants creates a Grants checker over the given table
func NewGrants(db *sql.DB, table string) *Grants {
	return &Grants{db: db, table: table}
}

// HasPermission implements identity.Checker. A global grant also covers
// object-scoped checks; a scoped grant only covers its own object.
func (g *Grants) HasPermission(ctx context.Context, user *identity.User, perm identity.Permission, obj any) bool {
	if user == nil {
		return false
	}
	if user.IsSuperUser() {
		return true
	}

	var (
		query string
		args  []interface{}
	)
	if key, ok := objectKey(obj); ok {
		query = fmt.Sprintf(
			"SELECT COUNT(*) FROM `%s` WHERE profile_id = ? AND permission = ? AND (object_key IS NULL OR object_key = ?)",
			g.table)
		args = []interface{}{user.ProfileID, string(perm), key}
	} else {
		query = fmt.Sprintf(
			"SELECT COUNT(*) FROM `%s` WHERE profile_id = ? AND permission = ? AND object_key IS NULL",
			g.table)
		args = []interface{}{user.ProfileID, string(perm)}
	}

	var count int
	if err := g.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Printf("Grants: failed to check %s for profile %s: %v", perm, user.ProfileID, err)
		return false
	}
	return count > 0
}

func objectKey(obj any) (string, bool) {
	if obj == nil {
		return "", false
	}
	if keyer, ok := obj.(ObjectKeyer); ok {
		return keyer.PermissionObjectKey(), true
	}
	return "", false
}
