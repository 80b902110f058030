package things

import (
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// MaxNameLength is the longest name a Thing accepts, in characters
const MaxNameLength = 255

// Thing is the only persisted record. ID is assigned by the store on insert
// and never changes afterwards.
type Thing struct {
	bun.BaseModel `bun:"table:things,alias:thg"`
	ID            int64   `bun:"id,pk,autoincrement" json:"id"`
	Name          *string `bun:"name" json:"name"`
}

// NewThing returns an unsaved thing with the given name
func NewThing(name string) *Thing {
	return &Thing{Name: &name}
}

// GetName returns the name or an empty string when unset
func (t *Thing) GetName() string {
	if t == nil || t.Name == nil {
		return ""
	}
	return *t.Name
}

// SetName sets the name; pass nil to clear it
func (t *Thing) SetName(name *string) *Thing {
	t.Name = name
	return t
}

// IsNew reports whether the store has assigned an id yet
func (t *Thing) IsNew() bool {
	return t == nil || t.ID == 0
}

// Validate will run validation rules
func (t Thing) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&t,
			validation.Field(
				&t.ID,
				validation.Min(int64(0)),
			),
			validation.Field(
				&t.Name,
				validation.RuneLength(0, MaxNameLength),
			),
		)
	}, "invalid thing")
}
