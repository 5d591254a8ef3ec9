package idparse

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
)

// FieldKind identifies one of the six identity fields.
type FieldKind int

const (
	FieldName FieldKind = iota
	FieldIDNumber
	FieldNationality
	FieldDateOfBirth
	FieldGender
	FieldAddress
)

// Fields lists every field kind in processing order.
var Fields = [...]FieldKind{
	FieldName,
	FieldIDNumber,
	FieldNationality,
	FieldDateOfBirth,
	FieldGender,
	FieldAddress,
}

var fieldNames = [...]string{
	FieldName:        "name",
	FieldIDNumber:    "id_number",
	FieldNationality: "nationality",
	FieldDateOfBirth: "date_of_birth",
	FieldGender:      "gender",
	FieldAddress:     "address",
}

var fieldFromName = map[string]FieldKind{
	"name":          FieldName,
	"id_number":     FieldIDNumber,
	"nationality":   FieldNationality,
	"date_of_birth": FieldDateOfBirth,
	"gender":        FieldGender,
	"address":       FieldAddress,
}

// String returns the snake_case name of the field.
func (k FieldKind) String() string {
	if int(k) >= 0 && int(k) < len(fieldNames) {
		return fieldNames[k]
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// MarshalJSON encodes the field kind as its name.
func (k FieldKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a field name such as "id_number".
func (k *FieldKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	fk, ok := fieldFromName[s]
	if !ok {
		return errors.Newf("idparse: unknown field: %q", s)
	}
	*k = fk
	return nil
}

// Field is one extracted value with its confidence flag.
type Field struct {
	Value     string `json:"value"`
	Confident bool   `json:"confident"`
}

// Record is the running result of a parsing session.
type Record struct {
	Name        Field `json:"name"`
	IDNumber    Field `json:"id_number"`
	Nationality Field `json:"nationality"`
	DateOfBirth Field `json:"date_of_birth"`
	Gender      Field `json:"gender"`
	Address     Field `json:"address"`
}

// Field returns a pointer to the field identified by k, or nil for an unknown kind.
func (r *Record) Field(k FieldKind) *Field {
	switch k {
	case FieldName:
		return &r.Name
	case FieldIDNumber:
		return &r.IDNumber
	case FieldNationality:
		return &r.Nationality
	case FieldDateOfBirth:
		return &r.DateOfBirth
	case FieldGender:
		return &r.Gender
	case FieldAddress:
		return &r.Address
	}
	return nil
}

// FullyConfident reports whether every field passed validation.
func (r *Record) FullyConfident() bool {
	for _, k := range Fields {
		if !r.Field(k).Confident {
			return false
		}
	}
	return true
}

// ConfidentFields returns the kinds whose confidence flag is set, in processing order.
func (r *Record) ConfidentFields() []FieldKind {
	var out []FieldKind
	for _, k := range Fields {
		if r.Field(k).Confident {
			out = append(out, k)
		}
	}
	return out
}

// set updates a field unless it is already confident. It reports whether the
// field became confident with this update.
func (r *Record) set(k FieldKind, value string, confident bool) bool {
	f := r.Field(k)
	if f == nil || f.Confident {
		return false
	}
	f.Value = value
	f.Confident = confident
	return confident
}
