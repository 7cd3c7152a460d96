package resrepo

import (
	"context"
	"database/sql"
	"time"

	"labreserve/model"
)

// DueRow is the slice of a reservation the due-date scan needs: who to mail,
// which item, and when it's due.
type DueRow struct {
	ReservationID int64
	ItemID        int64
	UserEmail     string
	UserFullName  string
	EndDateTime   time.Time
}

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, res *model.Reservation) error
	Get(ctx context.Context, id int64) (*model.Reservation, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error)

	// ActiveExists reports whether the user already holds an active
	// (pending/approved/checked out/late) reservation for the item.
	ActiveExists(ctx context.Context, tx *sql.Tx, userID, itemID int64) (bool, error)

	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.Status) error
	UpdateAdmin(ctx context.Context, tx *sql.Tx, id, adminID int64) error
	UpdateDates(ctx context.Context, tx *sql.Tx, id int64, start, end *time.Time) error

	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, tx *sql.Tx, userID int64) error

	List(ctx context.Context) ([]model.Reservation, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Reservation, error)
	ListByItem(ctx context.Context, itemID int64) ([]model.Reservation, error)

	// ListDueCheckedOut returns checked-out reservations on moveable items,
	// joined with the reserving user's contact details.
	ListDueCheckedOut(ctx context.Context) ([]DueRow, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

const resCols = `id, item, "user", start_date_time, end_date_time, status, user_admin_id`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	res := &model.Reservation{}
	err := row.Scan(&res.ID, &res.ItemID, &res.UserID, &res.StartDateTime, &res.EndDateTime, &res.Status, &res.AdminID)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO reservation (item, "user", start_date_time, end_date_time, status, user_admin_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id`,
		res.ItemID, res.UserID, res.StartDateTime, res.EndDateTime, res.Status, res.AdminID,
	).Scan(&res.ID)
}

func (r *repo) Get(ctx context.Context, id int64) (*model.Reservation, error) {
	return scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+resCols+` FROM reservation WHERE id = $1`, id))
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error) {
	return scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+resCols+` FROM reservation WHERE id = $1 FOR UPDATE`, id))
}

func (r *repo) ActiveExists(ctx context.Context, tx *sql.Tx, userID, itemID int64) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reservation
			WHERE "user" = $1 AND item = $2
			AND lower(status) IN ('pending', 'approved', 'checked out', 'late')
		)`,
		userID, itemID,
	).Scan(&exists)
	return exists, err
}

func (r *repo) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.Status) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservation SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *repo) UpdateAdmin(ctx context.Context, tx *sql.Tx, id, adminID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservation SET user_admin_id = $2 WHERE id = $1`, id, adminID)
	return err
}

func (r *repo) UpdateDates(ctx context.Context, tx *sql.Tx, id int64, start, end *time.Time) error {
	if start != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE reservation SET start_date_time = $2 WHERE id = $1`, id, *start); err != nil {
			return err
		}
	}
	if end != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE reservation SET end_date_time = $2 WHERE id = $1`, id, *end); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reservation WHERE id = $1`, id)
	return err
}

func (r *repo) DeleteByUser(ctx context.Context, tx *sql.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM reservation WHERE "user" = $1`, userID)
	return err
}

func (r *repo) List(ctx context.Context) ([]model.Reservation, error) {
	return r.list(ctx, `SELECT `+resCols+` FROM reservation ORDER BY id`)
}

func (r *repo) ListByStatus(ctx context.Context, status model.Status) ([]model.Reservation, error) {
	return r.list(ctx, `SELECT `+resCols+` FROM reservation WHERE lower(status) = lower($1) ORDER BY id`, string(status))
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Reservation, error) {
	return r.list(ctx, `SELECT `+resCols+` FROM reservation WHERE "user" = $1 ORDER BY id`, userID)
}

func (r *repo) ListByItem(ctx context.Context, itemID int64) ([]model.Reservation, error) {
	return r.list(ctx, `SELECT `+resCols+` FROM reservation WHERE item = $1 ORDER BY id`, itemID)
}

func (r *repo) list(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func (r *repo) ListDueCheckedOut(ctx context.Context) ([]DueRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.item, u.email, u.full_name, r.end_date_time
		FROM reservation r
		JOIN users u ON u.id = r."user"
		JOIN item i ON i.id = r.item
		WHERE lower(r.status) = 'checked out'
		AND i.moveable
		ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DueRow
	for rows.Next() {
		var d DueRow
		if err := rows.Scan(&d.ReservationID, &d.ItemID, &d.UserEmail, &d.UserFullName, &d.EndDateTime); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
