package authsvc

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"labreserve/model"
	ldaprepo "labreserve/repository/ldap"
	userrepo "labreserve/repository/user"
	"labreserve/util/hash"
)

type mockUserRepo struct {
	userrepo.Repo

	createFn func(ctx context.Context, u *model.User) error
	byNIDFn  func(ctx context.Context, nid string) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, u)
}

func (m *mockUserRepo) ByNID(ctx context.Context, nid string) (*model.User, error) {
	if m.byNIDFn == nil {
		return nil, sql.ErrNoRows
	}
	return m.byNIDFn(ctx, nid)
}

type mockIdentity struct {
	fn func(ctx context.Context, nid, password string) (*model.DirectoryUser, error)
}

func (m *mockIdentity) Authenticate(ctx context.Context, nid, password string) (*model.DirectoryUser, error) {
	return m.fn(ctx, nid, password)
}

func TestRegister_LDAP(t *testing.T) {
	ctx := context.Background()
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 42
			return nil
		},
	}
	dir := &mockIdentity{fn: func(ctx context.Context, nid, password string) (*model.DirectoryUser, error) {
		require.Equal(t, "jd123", nid)
		return &model.DirectoryUser{FirstName: "Jordan", LastName: "Diaz"}, nil
	}}

	svc := New(repo, dir, "test-secret")
	u, err := svc.Register(ctx, model.RegisterReq{
		NID:      "jd123",
		Email:    "JD123@Example.EDU",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), u.ID)
	require.Equal(t, "jd123@example.edu", u.Email)
	require.Equal(t, "Jordan Diaz", u.FullName)
	require.Equal(t, model.RoleUser, u.Role)
	require.False(t, u.Verified)
	require.Empty(t, u.PasswordHash)
}

func TestRegister_LDAPBadCreds(t *testing.T) {
	dir := &mockIdentity{fn: func(ctx context.Context, nid, password string) (*model.DirectoryUser, error) {
		return nil, ldaprepo.ErrInvalidCredentials
	}}
	svc := New(&mockUserRepo{}, dir, "test-secret")

	_, err := svc.Register(context.Background(), model.RegisterReq{
		NID: "jd123", Email: "jd@example.edu", Password: "wrong",
	})
	require.Error(t, err)
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestRegister_DirectoryDown(t *testing.T) {
	dir := &mockIdentity{fn: func(ctx context.Context, nid, password string) (*model.DirectoryUser, error) {
		return nil, ldaprepo.ErrUnavailable
	}}
	svc := New(&mockUserRepo{}, dir, "test-secret")

	_, err := svc.Register(context.Background(), model.RegisterReq{
		NID: "jd123", Email: "jd@example.edu", Password: "pw1234",
	})
	require.Equal(t, ErrDirectoryDown, Code(err))
}

func TestRegister_Local(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 7
			return nil
		},
	}
	svc := New(repo, nil, "test-secret")

	u, err := svc.Register(context.Background(), model.RegisterReq{
		NID: "jd123", Email: "jd@example.edu", Password: "supersecret", FullName: "Jordan Diaz",
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.PasswordHash)
	require.True(t, hash.Check(u.PasswordHash, "supersecret"))
}

func TestRegister_LocalNeedsFullName(t *testing.T) {
	svc := New(&mockUserRepo{}, nil, "test-secret")

	_, err := svc.Register(context.Background(), model.RegisterReq{
		NID: "jd123", Email: "jd@example.edu", Password: "supersecret",
	})
	require.Equal(t, ErrBadInput, Code(err))
}

func TestRegister_BadInput(t *testing.T) {
	svc := New(&mockUserRepo{}, nil, "test-secret")
	_, err := svc.Register(context.Background(), model.RegisterReq{NID: " ", Email: ""})
	require.Equal(t, ErrBadInput, Code(err))
}

func TestLogin_Local(t *testing.T) {
	hashed, err := hash.HashPassword("correct-password")
	require.NoError(t, err)

	repo := &mockUserRepo{byNIDFn: func(ctx context.Context, nid string) (*model.User, error) {
		return &model.User{ID: 9, NID: nid, Role: model.RoleAdmin, PasswordHash: hashed}, nil
	}}
	svc := New(repo, nil, "test-secret")

	u, tok, err := svc.Login(context.Background(), model.LoginReq{NID: "jd123", Password: "correct-password"})
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(9), u.ID)

	_, _, err = svc.Login(context.Background(), model.LoginReq{NID: "jd123", Password: "wrong-password"})
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := New(&mockUserRepo{}, nil, "test-secret")
	_, _, err := svc.Login(context.Background(), model.LoginReq{NID: "ghost", Password: "whatever"})
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestLogin_LDAPUserNotRegistered(t *testing.T) {
	// Directory accepts the credentials but no local account row exists yet.
	dir := &mockIdentity{fn: func(ctx context.Context, nid, password string) (*model.DirectoryUser, error) {
		return &model.DirectoryUser{FirstName: "Jordan", LastName: "Diaz"}, nil
	}}
	svc := New(&mockUserRepo{}, dir, "test-secret")

	_, _, err := svc.Login(context.Background(), model.LoginReq{NID: "jd123", Password: "pw1234"})
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestCodeExtractor(t *testing.T) {
	require.Equal(t, ErrEmailTaken, Code(errors.Join(ErrEmailTaken, errors.New("ctx"))))
	require.Nil(t, Code(errors.New("plain")))
}
