// Package model holds the identity and collateral-type primitives shared
// by the guardian, the registries, and the operational surfaces.
package model

import (
	"bytes"
	"fmt"
	"regexp"
)

// IlkSize is the fixed byte width of a collateral-type identifier.
const IlkSize = 32

// Ilk is an opaque fixed-size token naming one collateral type
// (e.g. "ETH-A"). Shorter names are right-padded with zero bytes.
type Ilk [IlkSize]byte

// validIlk matches uppercase alphanumeric names with dash separators,
// the conventional collateral-type naming scheme.
var validIlk = regexp.MustCompile(`^[A-Z0-9]+(-[A-Z0-9]+)*$`)

// NewIlk builds an Ilk from its string name.
func NewIlk(name string) (Ilk, error) {
	var ilk Ilk
	if name == "" {
		return ilk, fmt.Errorf("ilk name must not be empty")
	}
	if len(name) > IlkSize {
		return ilk, fmt.Errorf("ilk name %q exceeds %d bytes", name, IlkSize)
	}
	if !validIlk.MatchString(name) {
		return ilk, fmt.Errorf("ilk name %q contains invalid characters", name)
	}
	copy(ilk[:], name)
	return ilk, nil
}

// MustIlk builds an Ilk and panics on invalid input. For tests and
// compile-time constants only.
func MustIlk(name string) Ilk {
	ilk, err := NewIlk(name)
	if err != nil {
		panic(err)
	}
	return ilk
}

// String returns the ilk name with zero padding stripped.
func (i Ilk) String() string {
	return string(bytes.TrimRight(i[:], "\x00"))
}

// IsZero reports whether the ilk is the all-zero token.
func (i Ilk) IsZero() bool {
	return i == Ilk{}
}

// Address is an opaque identity token: an operator, a contract-like
// component, or the guardian itself. The empty string is not a valid
// address; absence of an identity is modeled with a nil *Address.
type Address string

// validAddress rejects identities that could not survive a round trip
// through state files and audit entries.
var validAddress = regexp.MustCompile(`^[a-zA-Z0-9._:-]+$`)

// ParseAddress validates an identity token.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", fmt.Errorf("address must not be empty")
	}
	if len(s) > 128 {
		return "", fmt.Errorf("address exceeds 128 bytes")
	}
	if !validAddress.MatchString(s) {
		return "", fmt.Errorf("address %q contains invalid characters", s)
	}
	return Address(s), nil
}

// Ptr returns a pointer to the address. Convenience for optional fields.
func (a Address) Ptr() *Address {
	return &a
}
