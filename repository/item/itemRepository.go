package itemrepo

import (
	"context"
	"database/sql"
	"time"

	"labreserve/model"
)

type Repo interface {
	Get(ctx context.Context, id int64) (*model.Item, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Item, error)
	Detail(ctx context.Context, id int64) (*model.ItemDetail, error)
	List(ctx context.Context) ([]model.ItemDetail, error)

	Insert(ctx context.Context, tx *sql.Tx, item *model.Item, main *model.ItemChild) error
	InsertChild(ctx context.Context, child *model.ItemChild) error
	InsertImage(ctx context.Context, img *model.ItemImage) error
	Retire(ctx context.Context, tx *sql.Tx, id int64, when time.Time) error

	// AdjustQuantity adds delta to the stock counter and recomputes
	// availability in one guarded statement. Returns false when the update
	// would drive quantity below zero.
	AdjustQuantity(ctx context.Context, tx *sql.Tx, id int64, delta int64) (bool, error)
	SetAvailability(ctx context.Context, tx *sql.Tx, id int64, available bool) error

	ChildNames(ctx context.Context, itemID int64) ([]string, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

const itemCols = `id, barcode, location, available, moveable, quantity, retired_date_time`

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	it := &model.Item{}
	err := row.Scan(&it.ID, &it.Barcode, &it.Location, &it.Available, &it.Moveable, &it.Quantity, &it.RetiredDateTime)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *repo) Get(ctx context.Context, id int64) (*model.Item, error) {
	return scanItem(r.db.QueryRowContext(ctx,
		`SELECT `+itemCols+` FROM item WHERE id = $1`, id))
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Item, error) {
	return scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemCols+` FROM item WHERE id = $1 FOR UPDATE`, id))
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, item *model.Item, main *model.ItemChild) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO item (barcode, location, available, moveable, quantity)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`,
		item.Barcode, item.Location, item.Quantity > 0, item.Moveable, item.Quantity,
	).Scan(&item.ID)
	if err != nil {
		return err
	}
	item.Available = item.Quantity > 0

	main.ItemID = item.ID
	main.Main = true
	return tx.QueryRowContext(ctx, `
		INSERT INTO item_child (item, name, description, vendor, serial, main)
		VALUES ($1,$2,$3,$4,$5,TRUE)
		RETURNING id`,
		main.ItemID, main.Name, main.Description, main.Vendor, main.Serial,
	).Scan(&main.ID)
}

func (r *repo) InsertChild(ctx context.Context, child *model.ItemChild) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO item_child (item, name, description, vendor, serial, main)
		VALUES ($1,$2,$3,$4,$5,FALSE)
		RETURNING id`,
		child.ItemID, child.Name, child.Description, child.Vendor, child.Serial,
	).Scan(&child.ID)
}

func (r *repo) InsertImage(ctx context.Context, img *model.ItemImage) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO item_image (item_child, path) VALUES ($1,$2) RETURNING id`,
		img.ChildID, img.Path,
	).Scan(&img.ID)
}

func (r *repo) Retire(ctx context.Context, tx *sql.Tx, id int64, when time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE item SET retired_date_time = $2, available = FALSE WHERE id = $1`,
		id, when)
	return err
}

func (r *repo) AdjustQuantity(ctx context.Context, tx *sql.Tx, id int64, delta int64) (bool, error) {
	// Guard: never let quantity go negative. Availability tracks the new
	// quantity in the same statement so the two can't drift.
	res, err := tx.ExecContext(ctx, `
		UPDATE item
		SET quantity = quantity + $2,
		    available = quantity + $2 > 0
		WHERE id = $1
		AND quantity + $2 >= 0`,
		id, delta)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff == 1, nil
}

func (r *repo) SetAvailability(ctx context.Context, tx *sql.Tx, id int64, available bool) error {
	_, err := tx.ExecContext(ctx, `UPDATE item SET available = $2 WHERE id = $1`, id, available)
	return err
}

func (r *repo) ChildNames(ctx context.Context, itemID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM item_child WHERE item = $1 ORDER BY main DESC, id`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.ItemDetail, error) {
	item, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.buildDetail(ctx, item)
}

func (r *repo) List(ctx context.Context) ([]model.ItemDetail, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+itemCols+` FROM item ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.ItemDetail, 0, len(items))
	for i := range items {
		d, err := r.buildDetail(ctx, &items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

// buildDetail merges the parent's stock fields with the main child's
// description and attaches the remaining children, each with its images.
func (r *repo) buildDetail(ctx context.Context, item *model.Item) (*model.ItemDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, item, name, description, vendor, serial, main
		FROM item_child WHERE item = $1 ORDER BY main DESC, id`, item.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []model.ItemChild
	for rows.Next() {
		var c model.ItemChild
		if err := rows.Scan(&c.ID, &c.ItemID, &c.Name, &c.Description, &c.Vendor, &c.Serial, &c.Main); err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range children {
		imgs, err := r.imagesForChild(ctx, children[i].ID)
		if err != nil {
			return nil, err
		}
		children[i].Images = imgs
	}

	d := &model.ItemDetail{
		ID:              item.ID,
		Barcode:         item.Barcode,
		Location:        item.Location,
		Available:       item.Available,
		Moveable:        item.Moveable,
		Quantity:        item.Quantity,
		RetiredDateTime: item.RetiredDateTime,
	}
	for _, c := range children {
		if c.Main {
			d.Name = c.Name
			d.Description = c.Description
			d.Vendor = c.Vendor
			d.Serial = c.Serial
			d.Images = c.Images
		} else {
			d.Children = append(d.Children, c)
		}
	}
	return d, nil
}

func (r *repo) imagesForChild(ctx context.Context, childID int64) ([]model.ItemImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, item_child, path FROM item_image WHERE item_child = $1 ORDER BY id`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var imgs []model.ItemImage
	for rows.Next() {
		var img model.ItemImage
		if err := rows.Scan(&img.ID, &img.ChildID, &img.Path); err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
	}
	return imgs, rows.Err()
}
