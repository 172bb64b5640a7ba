package memory_map

import (
	"errors"
	"fmt"
)

// ErrBadPermissionToken is returned when a permission field is not exactly 4 characters.
var ErrBadPermissionToken = errors.New("bad permission token")

// Permissions are the flags of the second maps column (e.g. "r-xp")
type Permissions struct {
	Read    bool
	Write   bool
	Execute bool
	Private bool // copy-on-write
	Shared  bool
}

// ParsePermissions decodes a 4 character token. Unknown characters are ignored.
func ParsePermissions(token string) (Permissions, error) {
	if len(token) != 4 {
		return Permissions{}, fmt.Errorf("%q: %w", token, ErrBadPermissionToken)
	}

	var p Permissions
	for _, c := range token {
		switch c {
		case 'r':
			p.Read = true
		case 'w':
			p.Write = true
		case 'x':
			p.Execute = true
		case 'p':
			p.Private = true
		case 's':
			p.Shared = true
		}
	}
	return p, nil
}

// String rebuilds the canonical token. Private wins over shared when both are set.
func (p Permissions) String() string {
	b := []byte("----")
	if p.Read {
		b[0] = 'r'
	}
	if p.Write {
		b[1] = 'w'
	}
	if p.Execute {
		b[2] = 'x'
	}
	switch {
	case p.Private:
		b[3] = 'p'
	case p.Shared:
		b[3] = 's'
	}
	return string(b)
}
