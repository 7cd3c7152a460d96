package itemsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"labreserve/model"
	itemrepo "labreserve/repository/item"
	"labreserve/util/database"
	"labreserve/util/imaging"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrInvalidState ErrCode = "INVALID_STATE"
	ErrValidation   ErrCode = "VALIDATION"
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

type CreateInput struct {
	Barcode     string
	Location    string
	Moveable    bool
	Quantity    int64
	Name        string
	Description string
	Vendor      string
	Serial      string
}

type Service interface {
	Get(ctx context.Context, id int64) (*model.ItemDetail, error)
	List(ctx context.Context) ([]model.ItemDetail, error)

	Create(ctx context.Context, in CreateInput) (*model.ItemDetail, error)
	AddChild(ctx context.Context, itemID int64, child model.ItemChild) (*model.ItemChild, error)
	Retire(ctx context.Context, itemID int64) (*model.ItemDetail, error)

	// AdjustQuantity atomically adds delta (may be negative) to the stock
	// counter and recomputes availability. Fails when the result would be
	// negative.
	AdjustQuantity(ctx context.Context, itemID, delta int64) (*model.Item, error)
	SetAvailability(ctx context.Context, itemID int64, available bool) error

	AttachImage(ctx context.Context, childID int64, upload io.Reader) (*model.ItemImage, error)
}

type service struct {
	tx       database.Runner
	r        itemrepo.Repo
	imageDir string
}

func New(tx database.Runner, r itemrepo.Repo, imageDir string) Service {
	return &service{tx: tx, r: r, imageDir: imageDir}
}

func (s *service) Get(ctx context.Context, id int64) (*model.ItemDetail, error) {
	d, err := s.r.Detail(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound, "item not found")
	}
	return d, err
}

func (s *service) List(ctx context.Context) ([]model.ItemDetail, error) {
	return s.r.List(ctx)
}

func (s *service) Create(ctx context.Context, in CreateInput) (*model.ItemDetail, error) {
	if in.Name == "" {
		return nil, makeErr(ErrValidation, "a name is required")
	}
	if in.Quantity < 0 {
		return nil, makeErr(ErrValidation, "quantity must not be negative")
	}

	item := &model.Item{
		Barcode:  in.Barcode,
		Location: in.Location,
		Moveable: in.Moveable,
		Quantity: in.Quantity,
	}
	main := &model.ItemChild{
		Name:        in.Name,
		Description: in.Description,
		Vendor:      in.Vendor,
		Serial:      in.Serial,
	}

	err := s.tx(ctx, func(tx *sql.Tx) error {
		return s.r.Insert(ctx, tx, item, main)
	})
	if err != nil {
		return nil, err
	}
	return s.r.Detail(ctx, item.ID)
}

func (s *service) AddChild(ctx context.Context, itemID int64, child model.ItemChild) (*model.ItemChild, error) {
	if child.Name == "" {
		return nil, makeErr(ErrValidation, "a name is required")
	}
	child.ItemID = itemID
	child.Main = false
	if err := s.r.InsertChild(ctx, &child); err != nil {
		if isFKViolation(err) {
			return nil, makeErr(ErrNotFound, "item not found")
		}
		return nil, err
	}
	return &child, nil
}

func (s *service) Retire(ctx context.Context, itemID int64) (*model.ItemDetail, error) {
	err := s.tx(ctx, func(tx *sql.Tx) error {
		item, err := s.r.GetForUpdate(ctx, tx, itemID)
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound, "item not found")
		}
		if err != nil {
			return err
		}
		if item.Retired() {
			return makeErr(ErrInvalidState, "item is already retired")
		}
		return s.r.Retire(ctx, tx, itemID, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	return s.r.Detail(ctx, itemID)
}

func (s *service) AdjustQuantity(ctx context.Context, itemID, delta int64) (*model.Item, error) {
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := s.r.GetForUpdate(ctx, tx, itemID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return makeErr(ErrNotFound, "item not found")
			}
			return err
		}
		ok, err := s.r.AdjustQuantity(ctx, tx, itemID, delta)
		if err != nil {
			return err
		}
		if !ok {
			return makeErr(ErrInvalidState, "quantity cannot go below zero")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.r.Get(ctx, itemID)
}

func (s *service) SetAvailability(ctx context.Context, itemID int64, available bool) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := s.r.GetForUpdate(ctx, tx, itemID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return makeErr(ErrNotFound, "item not found")
			}
			return err
		}
		return s.r.SetAvailability(ctx, tx, itemID, available)
	})
}

// AttachImage normalizes the upload, writes it under the image directory and
// records the row against the child.
func (s *service) AttachImage(ctx context.Context, childID int64, upload io.Reader) (*model.ItemImage, error) {
	data, err := imaging.Process(upload)
	if err != nil {
		return nil, makeErr(ErrValidation, "unsupported or corrupt image")
	}

	name := fmt.Sprintf("%d-%d.jpg", childID, time.Now().UnixNano())
	path := filepath.Join(s.imageDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}

	img := &model.ItemImage{ChildID: childID, Path: path}
	if err := s.r.InsertImage(ctx, img); err != nil {
		_ = os.Remove(path)
		if isFKViolation(err) {
			return nil, makeErr(ErrNotFound, "item child not found")
		}
		return nil, err
	}
	return img, nil
}

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
