package usersvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"labreserve/model"
	resrepo "labreserve/repository/reservation"
	userrepo "labreserve/repository/user"
	"labreserve/util/database"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound   ErrCode = "NOT_FOUND"
	ErrValidation ErrCode = "VALIDATION"
	ErrDuplicate  ErrCode = "DUPLICATE_EMAIL"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string { return e.msg }
func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode, msg string) error { return codedError{code: c, msg: msg} }

// Code extracts the error code, or "" for storage errors.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, id int64, role string) (*model.User, error)

	// UpdateEmail stores the new address and drops the verified flag.
	UpdateEmail(ctx context.Context, id int64, email string) (*model.User, error)

	// Delete removes the account together with all of its reservations.
	Delete(ctx context.Context, id int64) error
}

type service struct {
	tx database.Runner
	ur userrepo.Repo
	rr resrepo.Repo
}

func New(tx database.Runner, ur userrepo.Repo, rr resrepo.Repo) Service {
	return &service{tx: tx, ur: ur, rr: rr}
}

// canonicalRole maps a case-insensitive role name onto the stored constant.
func canonicalRole(role string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case strings.ToLower(model.RoleUser):
		return model.RoleUser, true
	case strings.ToLower(model.RoleAdmin):
		return model.RoleAdmin, true
	case strings.ToLower(model.RoleSuper):
		return model.RoleSuper, true
	}
	return "", false
}

func (s *service) Get(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.ur.ByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound, "user not found")
	}
	return u, err
}

func (s *service) List(ctx context.Context) ([]model.User, error) {
	return s.ur.List(ctx)
}

func (s *service) UpdateRole(ctx context.Context, id int64, role string) (*model.User, error) {
	role, ok := canonicalRole(role)
	if !ok {
		return nil, makeErr(ErrValidation, "invalid role")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ur.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) UpdateEmail(ctx context.Context, id int64, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, makeErr(ErrValidation, "invalid email address")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ur.UpdateEmail(ctx, id, email); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, makeErr(ErrDuplicate, "email is already in use")
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.tx(ctx, func(tx *sql.Tx) error {
		if err := s.rr.DeleteByUser(ctx, tx, id); err != nil {
			return err
		}
		return s.ur.Delete(ctx, tx, id)
	})
}
