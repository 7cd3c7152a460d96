// Package ldaprepo verifies credentials against the campus directory.
package ldaprepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"

	"labreserve/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid directory credentials")
	ErrUnavailable        = errors.New("directory unavailable")
)

// Identity authenticates a person and returns what the provider knows about
// them. Implemented here against LDAP and by the local credential store in
// the auth service.
type Identity interface {
	Authenticate(ctx context.Context, nid, password string) (*model.DirectoryUser, error)
}

type Directory struct {
	url    string
	baseDN string
	domain string
}

func New(url, baseDN, domain string) *Directory {
	return &Directory{url: url, baseDN: baseDN, domain: domain}
}

// Authenticate binds as nid@domain and looks the account up by
// sAMAccountName to resolve the person's name.
func (d *Directory) Authenticate(ctx context.Context, nid, password string) (*model.DirectoryUser, error) {
	conn, err := ldap.DialURL(d.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer conn.Close()

	if err := conn.Bind(fmt.Sprintf("%s@%s", nid, d.domain), password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	req := ldap.NewSearchRequest(
		d.baseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		fmt.Sprintf("(samaccountname=%s)", ldap.EscapeFilter(nid)),
		[]string{"givenName", "sn", "cn"},
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(res.Entries) == 0 {
		return nil, ErrInvalidCredentials
	}

	entry := res.Entries[0]
	return &model.DirectoryUser{
		FirstName: entry.GetAttributeValue("givenName"),
		LastName:  entry.GetAttributeValue("sn"),
	}, nil
}
