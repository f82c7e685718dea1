package datasource

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/peereval/internal/domain/errs"
	"github.com/okian/peereval/internal/domain/model"
)

// User file columns.
const (
	colRole        = "role"
	colUserID      = "user_id"
	colPassword    = "password"
	colDisplayName = "display_name"
)

// LoadUsers reads the users file. Rows with an unknown role or empty id are
// skipped; a later row for the same (role, id) replaces an earlier one.
// Plain passwords are hashed with bcrypt at the given cost; values that are
// already bcrypt hashes are kept.
func LoadUsers(path string, cost int) ([]model.User, error) {
	const op = "datasource.load_users"
	t, err := readTable(op, path, colRole, colUserID, colPassword, colDisplayName)
	if err != nil {
		return nil, err
	}

	type key struct {
		role model.Role
		id   string
	}
	index := make(map[key]int)
	users := make([]model.User, 0, len(t.rows))
	for _, row := range t.rows {
		role, ok := model.ParseRole(t.get(row, colRole))
		id := t.get(row, colUserID)
		if !ok || id == "" {
			continue
		}
		hash, err := hashPassword(t.get(row, colPassword), cost)
		if err != nil {
			return nil, errs.Wrap(op, errs.ErrDataSourceMissing, err)
		}
		name := t.get(row, colDisplayName)
		if name == "" {
			name = id
		}
		u := model.User{Role: role, UserID: id, DisplayName: name, PasswordHash: hash}

		k := key{role, id}
		if i, dup := index[k]; dup {
			users[i] = u
			continue
		}
		index[k] = len(users)
		users = append(users, u)
	}
	return users, nil
}

func hashPassword(pw string, cost int) ([]byte, error) {
	if isBcrypt(pw) {
		if _, err := bcrypt.Cost([]byte(pw)); err == nil {
			return []byte(pw), nil
		}
	}
	return bcrypt.GenerateFromPassword([]byte(pw), cost)
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
