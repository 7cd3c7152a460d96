package itemsvc

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"labreserve/model"
	itemrepo "labreserve/repository/item"
	"labreserve/util/database"
)

type mockItemRepo struct {
	itemrepo.Repo

	items map[int64]*model.Item

	inserted      *model.Item
	insertedChild *model.ItemChild
	insertedImage *model.ItemImage
	imageErr      error
	retiredAt     *time.Time
}

func (m *mockItemRepo) Get(ctx context.Context, id int64) (*model.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *it
	return &cp, nil
}

func (m *mockItemRepo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Item, error) {
	return m.Get(ctx, id)
}

func (m *mockItemRepo) Detail(ctx context.Context, id int64) (*model.ItemDetail, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &model.ItemDetail{ID: it.ID, Quantity: it.Quantity, Available: it.Available, RetiredDateTime: it.RetiredDateTime}, nil
}

func (m *mockItemRepo) Insert(ctx context.Context, tx *sql.Tx, item *model.Item, main *model.ItemChild) error {
	item.ID = 100
	item.Available = item.Quantity > 0
	m.items[item.ID] = item
	m.inserted = item
	m.insertedChild = main
	return nil
}

func (m *mockItemRepo) InsertChild(ctx context.Context, child *model.ItemChild) error {
	child.ID = 200
	m.insertedChild = child
	return nil
}

func (m *mockItemRepo) InsertImage(ctx context.Context, img *model.ItemImage) error {
	if m.imageErr != nil {
		return m.imageErr
	}
	img.ID = 300
	m.insertedImage = img
	return nil
}

func (m *mockItemRepo) Retire(ctx context.Context, tx *sql.Tx, id int64, when time.Time) error {
	m.items[id].RetiredDateTime = &when
	m.items[id].Available = false
	m.retiredAt = &when
	return nil
}

func (m *mockItemRepo) AdjustQuantity(ctx context.Context, tx *sql.Tx, id, delta int64) (bool, error) {
	it := m.items[id]
	if it.Quantity+delta < 0 {
		return false, nil
	}
	it.Quantity += delta
	it.Available = it.Quantity > 0
	return true, nil
}

func (m *mockItemRepo) SetAvailability(ctx context.Context, tx *sql.Tx, id int64, available bool) error {
	m.items[id].Available = available
	return nil
}

func noTx(ctx context.Context, fn database.TxFunc) error { return fn(nil) }

func newSvc(t *testing.T) (Service, *mockItemRepo) {
	t.Helper()
	repo := &mockItemRepo{items: map[int64]*model.Item{
		1: {ID: 1, Available: true, Moveable: true, Quantity: 3},
	}}
	return New(database.Runner(noTx), repo, t.TempDir()), repo
}

func TestCreate(t *testing.T) {
	svc, repo := newSvc(t)

	d, err := svc.Create(context.Background(), CreateInput{
		Barcode: "BC-1", Location: "Lab 2", Moveable: true, Quantity: 4,
		Name: "Multimeter", Vendor: "Fluke",
	})
	require.NoError(t, err)
	require.Equal(t, int64(100), d.ID)
	require.True(t, repo.insertedChild.Main)
	require.Equal(t, "Multimeter", repo.insertedChild.Name)

	_, err = svc.Create(context.Background(), CreateInput{Quantity: 1})
	require.Equal(t, ErrValidation, Code(err))

	_, err = svc.Create(context.Background(), CreateInput{Name: "x", Quantity: -1})
	require.Equal(t, ErrValidation, Code(err))
}

func TestAddChild(t *testing.T) {
	svc, repo := newSvc(t)

	c, err := svc.AddChild(context.Background(), 1, model.ItemChild{Name: "Probe set", Main: true})
	require.NoError(t, err)
	require.Equal(t, int64(1), c.ItemID)
	require.False(t, c.Main, "extra children must never become the main child")
	require.Equal(t, int64(200), repo.insertedChild.ID)

	_, err = svc.AddChild(context.Background(), 1, model.ItemChild{})
	require.Equal(t, ErrValidation, Code(err))
}

func TestRetire(t *testing.T) {
	svc, repo := newSvc(t)

	d, err := svc.Retire(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, d.RetiredDateTime)
	require.NotNil(t, repo.retiredAt)

	_, err = svc.Retire(context.Background(), 1)
	require.Equal(t, ErrInvalidState, Code(err))

	_, err = svc.Retire(context.Background(), 404)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestAdjustQuantity(t *testing.T) {
	svc, repo := newSvc(t)

	it, err := svc.AdjustQuantity(context.Background(), 1, -3)
	require.NoError(t, err)
	require.Equal(t, int64(0), it.Quantity)
	require.False(t, it.Available)

	_, err = svc.AdjustQuantity(context.Background(), 1, -1)
	require.Equal(t, ErrInvalidState, Code(err))
	require.Equal(t, int64(0), repo.items[1].Quantity)

	it, err = svc.AdjustQuantity(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), it.Quantity)
	require.True(t, it.Available)

	_, err = svc.AdjustQuantity(context.Background(), 404, 1)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestSetAvailability(t *testing.T) {
	svc, repo := newSvc(t)

	require.NoError(t, svc.SetAvailability(context.Background(), 1, false))
	require.False(t, repo.items[1].Available)

	require.Equal(t, ErrNotFound, Code(svc.SetAvailability(context.Background(), 404, true)))
}

func pngUpload(t *testing.T) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for x := 0; x < 20; x++ {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestAttachImage(t *testing.T) {
	svc, repo := newSvc(t)

	img, err := svc.AttachImage(context.Background(), 200, pngUpload(t))
	require.NoError(t, err)
	require.Equal(t, int64(200), img.ChildID)
	require.True(t, strings.HasSuffix(img.Path, ".jpg"))
	require.Equal(t, img, repo.insertedImage)

	_, statErr := os.Stat(img.Path)
	require.NoError(t, statErr)
}

func TestAttachImage_RejectsGarbage(t *testing.T) {
	svc, _ := newSvc(t)

	_, err := svc.AttachImage(context.Background(), 200, strings.NewReader("not an image"))
	require.Equal(t, ErrValidation, Code(err))
}

func TestAttachImage_CleansUpOnInsertFailure(t *testing.T) {
	svc, repo := newSvc(t)
	repo.imageErr = sql.ErrConnDone

	_, err := svc.AttachImage(context.Background(), 200, pngUpload(t))
	require.Error(t, err)
}
