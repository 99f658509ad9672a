package evolution

import (
	"errors"
	"fmt"

	"github.com/danmuck/wavewire/internal/schema"
)

// ErrNoPresence is returned by Has for fields read without presence
// tracking: the reader sees a value but cannot tell whether the writer set
// it.
var ErrNoPresence = errors.New("evolution: field has no presence information")

// Kind classifies how a reader-declared field was resolved.
type Kind uint8

const (
	// Present: the field was on the wire.
	Present Kind = iota + 1
	// AbsentDefaulted: an optional field the writer did not set. The value
	// is the type's zero.
	AbsentDefaulted
	// Implicit: a field read without presence. The value may be a default.
	Implicit
)

func (k Kind) String() string {
	switch k {
	case Present:
		return "present"
	case AbsentDefaulted:
		return "absent_defaulted"
	case Implicit:
		return "implicit"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Outcome is the resolution of one field declared by the reader version.
type Outcome struct {
	Field schema.FieldSpec
	Kind  Kind
	Value schema.Value
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s=%s(%s)", o.Field.Name, o.Kind, o.Value)
}

// MissingRequiredFieldError reports a required field absent from the wire.
// No partial record is produced.
type MissingRequiredFieldError struct {
	Version schema.Version
	Field   string
	ID      schema.FieldID
}

func (e MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("evolution: %s reader: missing required field %s (%d)", e.Version, e.Field, e.ID)
}

// UnknownFieldAccessError reports access by name to a field the reader
// version does not declare. It concerns that access only.
type UnknownFieldAccessError struct {
	Version schema.Version
	Field   string
}

func (e UnknownFieldAccessError) Error() string {
	return fmt.Sprintf("evolution: %s reader does not declare field %q", e.Version, e.Field)
}
