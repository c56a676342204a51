package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tutorhub/tutorhub/pkg/pg"
)

// dbtx is the subset of pgxpool.Pool used by PGDirectory.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGDirectory keeps users in the users table created by db/migrations.
type PGDirectory struct {
	db dbtx
}

func NewPGDirectory(db dbtx) *PGDirectory {
	if db == nil {
		panic("profile: postgres connection is required")
	}
	return &PGDirectory{db: db}
}

const getUserQuery = `
SELECT id, email, first_name, last_name, unsafe_metadata, private_metadata
FROM users
WHERE id = $1`

func (d *PGDirectory) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	err := d.db.QueryRow(ctx, getUserQuery, userID).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.UnsafeMetadata, &u.PrivateMetadata,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// updateUserQuery merges the set map into the bag and then removes the deleted keys.
const updateUserQuery = `
UPDATE users SET
	first_name = COALESCE($2, first_name),
	last_name = COALESCE($3, last_name),
	unsafe_metadata = (unsafe_metadata || $4::jsonb) - $5::text[],
	private_metadata = (private_metadata || $6::jsonb) - $7::text[],
	updated_at = now()
WHERE id = $1`

func (d *PGDirectory) UpdateUser(ctx context.Context, userID string, upd UserUpdate) error {
	unsafeSet, unsafeDel := splitPatch(upd.UnsafeMetadata)
	privateSet, privateDel := splitPatch(upd.PrivateMetadata)

	tag, err := d.db.Exec(ctx, updateUserQuery,
		userID, upd.FirstName, upd.LastName,
		unsafeSet, unsafeDel, privateSet, privateDel,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

const listSubscribedQuery = `
SELECT id
FROM users
WHERE COALESCE(unsafe_metadata->>'` + KeySubscriptionID + `', '') <> ''
  AND id > $1
ORDER BY id
LIMIT $2`

func (d *PGDirectory) ListSubscribed(ctx context.Context, afterUserID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.db.Query(ctx, listSubscribedQuery, afterUserID, limit)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return ids, nil
}

// UpsertUser mirrors an identity provider user into the table, keeping stored metadata.
func (d *PGDirectory) UpsertUser(ctx context.Context, u User) error {
	_, err := d.db.Exec(ctx, `
INSERT INTO users (id, email, first_name, last_name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
	email = EXCLUDED.email,
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name,
	updated_at = now()`,
		u.ID, u.Email, u.FirstName, u.LastName,
	)
	return err
}

func splitPatch(patch map[string]any) (map[string]any, []string) {
	set := make(map[string]any, len(patch))
	del := make([]string, 0)
	for k, v := range patch {
		if v == nil {
			del = append(del, k)
			continue
		}
		set[k] = v
	}
	return set, del
}
