package userrepo

import (
	"context"
	"database/sql"

	"labreserve/model"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByID(ctx context.Context, id int64) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByNID(ctx context.Context, nid string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	RoleByID(ctx context.Context, id int64) (string, error)
	UpdateRole(ctx context.Context, id int64, role string) error
	UpdateEmail(ctx context.Context, id int64, email string) error
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

const userCols = `id, nid, email, full_name, role, verified, password_hash, created`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.NID, &u.Email, &u.FullName, &u.Role, &u.Verified, &u.PasswordHash, &u.Created)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) Create(ctx context.Context, u *model.User) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO users (nid, email, full_name, role, verified, password_hash)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created`,
		u.NID, u.Email, u.FullName, u.Role, u.Verified, u.PasswordHash,
	).Scan(&u.ID, &u.Created)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *repo) ByNID(ctx context.Context, nid string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE lower(nid) = lower($1)`, nid))
}

func (r *repo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *repo) RoleByID(ctx context.Context, id int64) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	return role, err
}

func (r *repo) UpdateRole(ctx context.Context, id int64, role string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	return err
}

// UpdateEmail changes the address and resets verification.
func (r *repo) UpdateEmail(ctx context.Context, id int64, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = $2, verified = FALSE WHERE id = $1`, id, email)
	return err
}

func (r *repo) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
