package reservation

// Dates travel as unix millisecond timestamps.

type createReservationReq struct {
	Email         string `json:"email" validate:"required,email"`
	Item          int64  `json:"item" validate:"required,gt=0"`
	StartDateTime int64  `json:"startDateTime" validate:"required,gt=0"`
	EndDateTime   int64  `json:"endDateTime" validate:"required,gt=0"`
	Status        string `json:"status"`
	AdminID       *int64 `json:"adminId"`
}

type updateReservationReq struct {
	Status        string `json:"status" validate:"required"`
	AdminID       *int64 `json:"adminId"`
	StartDateTime *int64 `json:"startDateTime"`
	EndDateTime   *int64 `json:"endDateTime"`
}
