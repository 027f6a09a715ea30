package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports an invalid or missing field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Patch is the whitelist of mutable member fields. Nil pointers are left untouched.
// Identity, credential, registration date and history are not patchable.
type Patch struct {
	Name           *string
	BirthDate      *string
	Phone          *string
	FatherName     *string
	MotherName     *string
	CivilStatus    *string
	Gender         *Gender
	DocumentNumber *string
	Notes          *string
	BaptismDate    *string
	Talents        []string
	Gifts          []string
	Role           *Role
	Department     *string
	Branch         *string
	Area           *string
	RoleInDept     *string
	SpiritualState *string
	Participation  *Participation
}

// Ptr returns a pointer to v; handy for building patches.
func Ptr[T any](v T) *T { return &v }

// Validate checks the values carried by the patch. Name presence is checked by the store at registration.
func (p *Patch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if p.Role != nil && !p.Role.Valid() {
		return &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", *p.Role)}
	}
	if p.Participation != nil && !p.Participation.Valid() {
		return &ValidationError{Field: "participation", Message: fmt.Sprintf("unknown participation %q", *p.Participation)}
	}
	if p.Gender != nil && *p.Gender != "" && *p.Gender != GenderMale && *p.Gender != GenderFemale {
		return &ValidationError{Field: "gender", Message: fmt.Sprintf("unknown gender %q", *p.Gender)}
	}
	if p.BirthDate != nil && *p.BirthDate != "" {
		if _, err := ParseBirthDate(*p.BirthDate); err != nil {
			return &ValidationError{Field: "birthDate", Message: "must be YYYY-MM-DD or RFC 3339"}
		}
	}
	return nil
}

// Apply copies the set fields of p onto m.
func (p *Patch) Apply(m *Member) {
	setString(&m.Name, trimmed(p.Name))
	setString(&m.BirthDate, p.BirthDate)
	setString(&m.Phone, p.Phone)
	setString(&m.FatherName, p.FatherName)
	setString(&m.MotherName, p.MotherName)
	setString(&m.CivilStatus, p.CivilStatus)
	setString(&m.DocumentNumber, p.DocumentNumber)
	setString(&m.Notes, p.Notes)
	setString(&m.BaptismDate, p.BaptismDate)
	setString(&m.Department, p.Department)
	setString(&m.Branch, p.Branch)
	setString(&m.Area, p.Area)
	setString(&m.RoleInDept, p.RoleInDept)
	setString(&m.SpiritualState, p.SpiritualState)
	if p.Gender != nil {
		m.Gender = *p.Gender
	}
	if p.Role != nil {
		m.Role = *p.Role
	}
	if p.Participation != nil {
		m.Participation = *p.Participation
	}
	if p.Talents != nil {
		m.Talents = cloneStrings(p.Talents)
	}
	if p.Gifts != nil {
		m.Gifts = cloneStrings(p.Gifts)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}
