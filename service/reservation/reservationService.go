package ressvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"labreserve/model"
	itemrepo "labreserve/repository/item"
	resrepo "labreserve/repository/reservation"
	userrepo "labreserve/repository/user"
	"labreserve/util/database"
	"labreserve/util/ics"
	"labreserve/util/mailer"
)

// errors used by controllers

type ErrCode string

const (
	ErrValidation    ErrCode = "VALIDATION"
	ErrInvalidStatus ErrCode = "INVALID_STATUS"
	ErrPermission    ErrCode = "PERMISSION_DENIED"
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrDuplicate     ErrCode = "DUPLICATE_RESERVATION"
	ErrNoStock       ErrCode = "NO_STOCK"
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
	Email      string
	ItemID     int64
	Start      time.Time
	End        time.Time
	Status     string // optional, defaults to pending
	AdminID    *int64
	CallerRole string
}

type UpdateInput struct {
	ReservationID int64
	Status        string
	CallerID      int64
	CallerRole    string
	AdminID       *int64
	Start         *time.Time
	End           *time.Time
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*model.ReservationView, error)
	UpdateStatus(ctx context.Context, in UpdateInput) (*model.ReservationView, error)
	Delete(ctx context.Context, reservationID int64, callerRole string) error

	List(ctx context.Context) ([]model.ReservationView, error)
	ListByStatus(ctx context.Context, status string) ([]model.ReservationView, error)
	ListByUser(ctx context.Context, userID, callerID int64, callerRole string) ([]model.ReservationView, error)
	ListByItem(ctx context.Context, itemID int64, callerRole string) ([]model.ReservationView, error)
	GetByID(ctx context.Context, id int64) (*model.ReservationView, error)
}

type service struct {
	tx database.Runner
	r  resrepo.Repo
	ir itemrepo.Repo
	ur userrepo.Repo

	mail mailer.Mailer // may be nil, confirmations are best-effort
	cal  ics.Builder
	log  *slog.Logger
}

func New(tx database.Runner, r resrepo.Repo, ir itemrepo.Repo, ur userrepo.Repo, mail mailer.Mailer, cal ics.Builder, log *slog.Logger) Service {
	return &service{tx: tx, r: r, ir: ir, ur: ur, mail: mail, cal: cal, log: log}
}

func isAdmin(role string) bool {
	switch strings.ToLower(role) {
	case "admin", "super":
		return true
	}
	return false
}

func (s *service) Create(ctx context.Context, in CreateInput) (*model.ReservationView, error) {
	user, err := s.ur.ByEmail(ctx, in.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound, "email not found")
	}
	if err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = string(model.StatusPending)
	}
	status, ok := model.ParseStatus(in.Status)
	if !ok {
		return nil, makeErr(ErrInvalidStatus, "invalid reservation status")
	}
	if status != model.StatusPending && !isAdmin(in.CallerRole) {
		return nil, makeErr(ErrPermission, "insufficient permissions")
	}

	if !in.End.After(in.Start) {
		return nil, makeErr(ErrValidation, "end date must be after start date")
	}

	if in.AdminID != nil {
		role, err := s.ur.RoleByID(ctx, *in.AdminID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound, "no admin with this id")
		}
		if err != nil {
			return nil, err
		}
		if !isAdmin(role) {
			return nil, makeErr(ErrPermission, "insufficient permissions")
		}
	}

	res := &model.Reservation{
		ItemID:        in.ItemID,
		UserID:        user.ID,
		StartDateTime: in.Start,
		EndDateTime:   in.End,
		Status:        status,
		AdminID:       in.AdminID,
	}

	err = s.tx(ctx, func(tx *sql.Tx) error {
		item, err := s.ir.GetForUpdate(ctx, tx, in.ItemID)
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrValidation, "invalid item id")
		}
		if err != nil {
			return err
		}
		if item.Retired() {
			return makeErr(ErrValidation, "item is retired")
		}

		exists, err := s.r.ActiveExists(ctx, tx, user.ID, in.ItemID)
		if err != nil {
			return err
		}
		if exists {
			return makeErr(ErrDuplicate, "you already have a reservation for this item")
		}

		if err := s.r.Insert(ctx, tx, res); err != nil {
			return err
		}

		if status == model.StatusCheckedOut {
			return s.checkOutStock(ctx, tx, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := s.hydrate(ctx, res)
	if err != nil {
		return nil, err
	}

	if status == model.StatusApproved || status == model.StatusCheckedOut {
		s.confirm(view)
	}
	return view, nil
}

// checkOutStock takes one unit off the shelf. The quantity was read under
// FOR UPDATE, so the check-then-decrement ordering holds: mark the item
// unavailable while the last unit is still counted, then decrement.
func (s *service) checkOutStock(ctx context.Context, tx *sql.Tx, item *model.Item) error {
	if item.Quantity == 1 {
		if err := s.ir.SetAvailability(ctx, tx, item.ID, false); err != nil {
			return err
		}
	}
	ok, err := s.ir.AdjustQuantity(ctx, tx, item.ID, -1)
	if err != nil {
		return err
	}
	if !ok {
		return makeErr(ErrNoStock, "item is out of stock")
	}
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, in UpdateInput) (*model.ReservationView, error) {
	status, ok := model.ParseStatus(in.Status)
	if !ok {
		return nil, makeErr(ErrInvalidStatus, "invalid reservation status")
	}

	var res *model.Reservation
	err := s.tx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = s.r.GetForUpdate(ctx, tx, in.ReservationID)
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound, "reservation not found")
		}
		if err != nil {
			return err
		}

		if !isAdmin(in.CallerRole) {
			if res.UserID != in.CallerID {
				return makeErr(ErrPermission, "you don't have permission to modify this resource")
			}
			// Owners may only cancel. The original reports this as an
			// invalid status rather than a permission failure.
			if status != model.StatusCancelled {
				return makeErr(ErrInvalidStatus, "invalid reservation status")
			}
		}

		if !res.Status.CanTransitionTo(status) {
			return makeErr(ErrValidation,
				fmt.Sprintf("cannot transition reservation from %q to %q", res.Status, status))
		}

		switch status {
		case model.StatusCheckedOut:
			// Decrement first, then flag unavailability once the shelf
			// is empty.
			ok, err := s.ir.AdjustQuantity(ctx, tx, res.ItemID, -1)
			if err != nil {
				return err
			}
			if !ok {
				return makeErr(ErrNoStock, "item is out of stock")
			}
			item, err := s.ir.GetForUpdate(ctx, tx, res.ItemID)
			if err != nil {
				return err
			}
			if item.Quantity == 0 {
				if err := s.ir.SetAvailability(ctx, tx, res.ItemID, false); err != nil {
					return err
				}
			}

		case model.StatusReturned:
			// A return always puts one unit back and reopens the item.
			if _, err := s.ir.AdjustQuantity(ctx, tx, res.ItemID, 1); err != nil {
				return err
			}
			if err := s.ir.SetAvailability(ctx, tx, res.ItemID, true); err != nil {
				return err
			}
		}

		if err := s.r.UpdateStatus(ctx, tx, in.ReservationID, status); err != nil {
			return err
		}
		res.Status = status

		if in.AdminID != nil {
			role, err := s.ur.RoleByID(ctx, *in.AdminID)
			if errors.Is(err, sql.ErrNoRows) {
				return makeErr(ErrNotFound, "no admin with this id")
			}
			if err != nil {
				return err
			}
			if !isAdmin(role) {
				return makeErr(ErrPermission, "insufficient permissions")
			}
			if err := s.r.UpdateAdmin(ctx, tx, in.ReservationID, *in.AdminID); err != nil {
				return err
			}
			res.AdminID = in.AdminID
		}

		if err := s.r.UpdateDates(ctx, tx, in.ReservationID, in.Start, in.End); err != nil {
			return err
		}
		if in.Start != nil {
			res.StartDateTime = *in.Start
		}
		if in.End != nil {
			res.EndDateTime = *in.End
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := s.hydrate(ctx, res)
	if err != nil {
		return nil, err
	}

	fullSend := isAdmin(in.CallerRole) &&
		(status == model.StatusApproved || status == model.StatusCheckedOut)
	if fullSend {
		s.confirm(view)
	}
	return view, nil
}

// Delete removes the reservation without rolling back any stock it may hold.
func (s *service) Delete(ctx context.Context, reservationID int64, callerRole string) error {
	if !isAdmin(callerRole) {
		return makeErr(ErrPermission, "you don't have permission to modify this resource")
	}
	return s.r.Delete(ctx, reservationID)
}

func (s *service) List(ctx context.Context) ([]model.ReservationView, error) {
	rows, err := s.r.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, rows)
}

func (s *service) ListByStatus(ctx context.Context, status string) ([]model.ReservationView, error) {
	st, ok := model.ParseStatus(status)
	if !ok {
		return nil, makeErr(ErrInvalidStatus, "invalid reservation status")
	}
	rows, err := s.r.ListByStatus(ctx, st)
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, rows)
}

func (s *service) ListByUser(ctx context.Context, userID, callerID int64, callerRole string) ([]model.ReservationView, error) {
	if !isAdmin(callerRole) && callerID != userID {
		return nil, makeErr(ErrPermission, "you don't have permission to view this resource")
	}
	rows, err := s.r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, rows)
}

// ListByItem hides the user and admin records from non-admin callers.
func (s *service) ListByItem(ctx context.Context, itemID int64, callerRole string) ([]model.ReservationView, error) {
	rows, err := s.r.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	views, err := s.hydrateAll(ctx, rows)
	if err != nil {
		return nil, err
	}
	if !isAdmin(callerRole) {
		for i := range views {
			views[i].User = nil
			views[i].Admin = nil
		}
	}
	return views, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*model.ReservationView, error) {
	res, err := s.r.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound, "reservation not found")
	}
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, res)
}

func (s *service) hydrateAll(ctx context.Context, rows []model.Reservation) ([]model.ReservationView, error) {
	views := make([]model.ReservationView, 0, len(rows))
	for i := range rows {
		v, err := s.hydrate(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// hydrate expands the item, user and admin references into full records.
func (s *service) hydrate(ctx context.Context, res *model.Reservation) (*model.ReservationView, error) {
	item, err := s.ir.Detail(ctx, res.ItemID)
	if err != nil {
		return nil, err
	}

	view := &model.ReservationView{
		ID:            res.ID,
		Item:          item,
		StartDateTime: res.StartDateTime,
		EndDateTime:   res.EndDateTime,
		Status:        res.Status,
	}

	user, err := s.ur.ByID(ctx, res.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	view.User = user

	if res.AdminID != nil {
		admin, err := s.ur.ByID(ctx, *res.AdminID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if admin != nil && isAdmin(admin.Role) {
			view.Admin = admin
		}
	}
	return view, nil
}

// confirm emails the calendar invite for an approved or checked-out
// reservation. Failures are logged and never fail the operation.
func (s *service) confirm(view *model.ReservationView) {
	if s.mail == nil || view.User == nil {
		return
	}

	body := "Your reservation has been created. " +
		"Use the attached file to add the reservation to your calendar."

	var attachment []byte
	if s.cal != nil {
		blob, err := s.cal.Build(view)
		if err != nil {
			s.log.Error("can't build calendar invite", "reservation", view.ID, "err", err)
		} else {
			attachment = blob
		}
	}

	err := s.mail.Send(view.User.Email, "Item Reservation Confirmation", body,
		attachment, fmt.Sprintf("%d.ics", view.ID))
	if err != nil {
		s.log.Error("can't send confirmation email", "reservation", view.ID, "err", err)
	}
}
