package model

import "time"

// User roles. Role comparisons are case-insensitive everywhere.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
	RoleSuper = "Super"
)

type User struct {
	ID           int64     `json:"id"`
	NID          string    `json:"nid"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Role         string    `json:"role"`
	Verified     bool      `json:"verified"`
	PasswordHash string    `json:"-"`
	Created      time.Time `json:"created"`
}

// DirectoryUser is what the identity provider knows about a person.
type DirectoryUser struct {
	FirstName string
	LastName  string
}

func (d DirectoryUser) FullName() string {
	return d.FirstName + " " + d.LastName
}

// RegisterReq represents user registration payload
// swagger:model RegisterReq
type RegisterReq struct {
	NID      string `json:"nid" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	// FullName is only used by the local credential provider. With LDAP the
	// name comes from the directory.
	FullName string `json:"fullName"`
}

// LoginReq represents login payload
// swagger:model LoginReq
type LoginReq struct {
	NID      string `json:"nid" validate:"required"`
	Password string `json:"password" validate:"required"`
}
