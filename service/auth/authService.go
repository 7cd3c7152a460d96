package authsvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"labreserve/model"
	ldaprepo "labreserve/repository/ldap"
	userrepo "labreserve/repository/user"
	"labreserve/util/hash"
	jwtutil "labreserve/util/jwt"
)

var (
	ErrEmailTaken    = errors.New("an account with this email or nid already exists")
	ErrBadInput      = errors.New("bad input")
	ErrInvalidCreds  = errors.New("invalid credentials")
	ErrDirectoryDown = errors.New("directory unavailable")
)

// Code maps err to the sentinel it wraps so controllers can switch on it.
func Code(err error) error {
	for _, sentinel := range []error{ErrEmailTaken, ErrBadInput, ErrInvalidCreds, ErrDirectoryDown} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
}

type service struct {
	ur     userrepo.Repo
	dir    ldaprepo.Identity // nil means local credentials
	secret string
}

// New builds the auth service. dir selects the revision's identity source:
// pass the LDAP directory to authenticate against it, or nil to verify
// locally stored password hashes.
func New(ur userrepo.Repo, dir ldaprepo.Identity, secret string) Service {
	return &service{ur: ur, dir: dir, secret: secret}
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, error) {
	u := &model.User{
		NID:      strings.TrimSpace(req.NID),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Role:     model.RoleUser,
		Verified: false,
	}
	if u.NID == "" || u.Email == "" {
		return nil, ErrBadInput
	}

	if s.dir != nil {
		person, err := s.dir.Authenticate(ctx, u.NID, req.Password)
		if err != nil {
			return nil, mapDirectoryErr(err)
		}
		u.FullName = person.FullName()
	} else {
		u.FullName = strings.TrimSpace(req.FullName)
		if u.FullName == "" {
			return nil, ErrBadInput
		}
		hashed, err := hash.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hashed
	}

	if err := s.ur.Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	nid := strings.TrimSpace(req.NID)
	if nid == "" || req.Password == "" {
		return nil, "", ErrBadInput
	}

	if s.dir != nil {
		if _, err := s.dir.Authenticate(ctx, nid, req.Password); err != nil {
			return nil, "", mapDirectoryErr(err)
		}
	}

	u, err := s.ur.ByNID(ctx, nid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrInvalidCreds
		}
		return nil, "", err
	}

	if s.dir == nil && !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", ErrInvalidCreds
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Role, 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func mapDirectoryErr(err error) error {
	if errors.Is(err, ldaprepo.ErrInvalidCredentials) {
		return ErrInvalidCreds
	}
	if errors.Is(err, ldaprepo.ErrUnavailable) {
		return ErrDirectoryDown
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
