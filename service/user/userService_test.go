package usersvc

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"labreserve/model"
	resrepo "labreserve/repository/reservation"
	userrepo "labreserve/repository/user"
	"labreserve/util/database"
)

type mockUserRepo struct {
	userrepo.Repo

	users map[int64]*model.User

	updatedRole  string
	updatedEmail string
	deleted      bool
}

func (m *mockUserRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id int64, role string) error {
	m.users[id].Role = role
	m.updatedRole = role
	return nil
}

func (m *mockUserRepo) UpdateEmail(ctx context.Context, id int64, email string) error {
	m.users[id].Email = email
	m.users[id].Verified = false
	m.updatedEmail = email
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	delete(m.users, id)
	m.deleted = true
	return nil
}

type mockResRepo struct {
	resrepo.Repo

	deletedFor []int64
}

func (m *mockResRepo) DeleteByUser(ctx context.Context, tx *sql.Tx, userID int64) error {
	m.deletedFor = append(m.deletedFor, userID)
	return nil
}

func noTx(ctx context.Context, fn database.TxFunc) error { return fn(nil) }

func newSvc() (Service, *mockUserRepo, *mockResRepo) {
	ur := &mockUserRepo{users: map[int64]*model.User{
		1: {ID: 1, Email: "one@example.edu", Role: model.RoleUser, Verified: true},
	}}
	rr := &mockResRepo{}
	return New(database.Runner(noTx), ur, rr), ur, rr
}

func TestGet(t *testing.T) {
	svc, _, _ := newSvc()

	u, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "one@example.edu", u.Email)

	_, err = svc.Get(context.Background(), 404)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestUpdateRole(t *testing.T) {
	svc, ur, _ := newSvc()

	u, err := svc.UpdateRole(context.Background(), 1, "Admin")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)
	require.Equal(t, model.RoleAdmin, ur.updatedRole)

	_, err = svc.UpdateRole(context.Background(), 1, "overlord")
	require.Equal(t, ErrValidation, Code(err))

	_, err = svc.UpdateRole(context.Background(), 404, "admin")
	require.Equal(t, ErrNotFound, Code(err))
}

func TestUpdateEmail_ResetsVerified(t *testing.T) {
	svc, ur, _ := newSvc()

	u, err := svc.UpdateEmail(context.Background(), 1, "New@Example.EDU")
	require.NoError(t, err)
	require.Equal(t, "new@example.edu", u.Email)
	require.False(t, u.Verified)
	require.Equal(t, "new@example.edu", ur.updatedEmail)

	_, err = svc.UpdateEmail(context.Background(), 1, "not-an-address")
	require.Equal(t, ErrValidation, Code(err))
}

func TestDelete_CascadesReservations(t *testing.T) {
	svc, ur, rr := newSvc()

	require.NoError(t, svc.Delete(context.Background(), 1))
	require.True(t, ur.deleted)
	require.Equal(t, []int64{1}, rr.deletedFor)

	require.Equal(t, ErrNotFound, Code(svc.Delete(context.Background(), 1)))
}
