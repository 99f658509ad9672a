package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Version tags the field set a writer or reader recognizes.
// Versions are strictly additive.
type Version uint16

const (
	V1 Version = 1
	V2 Version = 2

	Latest = V2
)

func (v Version) String() string {
	return "v" + strconv.Itoa(int(v))
}

func (v Version) Valid() bool {
	_, ok := fieldsByVersion[v]
	return ok
}

// ParseVersion accepts "v2", "V2" or "2".
func ParseVersion(raw string) (Version, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "v")
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("schema: invalid version %q", raw)
	}
	v := Version(n)
	if !v.Valid() {
		return 0, fmt.Errorf("schema: unknown version %q", raw)
	}
	return v, nil
}

// FieldID is the stable wire tag of a field across every version.
type FieldID uint16

// Field IDs from the waveform record contract.
const (
	FieldIdentity     FieldID = 1
	FieldTimestamp    FieldID = 2
	FieldSampleRate   FieldID = 3
	FieldSampleCount  FieldID = 4
	FieldChannelCount FieldID = 5
	FieldPayload      FieldID = 6
	FieldExtension    FieldID = 7
)

// Field names double as MessagePack map keys.
const (
	NameIdentity     = "identity"
	NameTimestamp    = "timestamp"
	NameSampleRate   = "sample_rate"
	NameSampleCount  = "sample_count"
	NameChannelCount = "channel_count"
	NamePayload      = "payload"
	NameExtension    = "extension_field"
)

type Kind uint8

const (
	KindInt64 Kind = iota + 1
	KindUint64
	KindUint32
	KindFloat32s
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindUint32:
		return "uint32"
	case KindFloat32s:
		return "[]float32"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Presence describes how a reader learns whether the writer set a field.
type Presence uint8

const (
	// Required fields are always written, even when zero.
	Required Presence = iota + 1
	// Optional fields carry explicit presence: written iff set.
	Optional
	// Implicit fields are written iff non-zero and carry no presence.
	Implicit
	// Repeated fields are absent when empty.
	Repeated
)

func (p Presence) String() string {
	switch p {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case Implicit:
		return "implicit"
	case Repeated:
		return "repeated"
	default:
		return "presence(" + strconv.Itoa(int(p)) + ")"
	}
}

// FieldSpec declares one field as a given version sees it.
type FieldSpec struct {
	ID       FieldID
	Name     string
	Kind     Kind
	Presence Presence
}

var v1Fields = []FieldSpec{
	{FieldIdentity, NameIdentity, KindUint64, Implicit},
	{FieldTimestamp, NameTimestamp, KindInt64, Required},
	{FieldSampleRate, NameSampleRate, KindUint32, Required},
	{FieldSampleCount, NameSampleCount, KindUint32, Required},
	{FieldChannelCount, NameChannelCount, KindUint32, Required},
	{FieldPayload, NamePayload, KindFloat32s, Repeated},
}

// v2 upgrades identity to explicit presence and adds the extension field.
var v2Fields = []FieldSpec{
	{FieldIdentity, NameIdentity, KindUint64, Optional},
	{FieldTimestamp, NameTimestamp, KindInt64, Required},
	{FieldSampleRate, NameSampleRate, KindUint32, Required},
	{FieldSampleCount, NameSampleCount, KindUint32, Required},
	{FieldChannelCount, NameChannelCount, KindUint32, Required},
	{FieldPayload, NamePayload, KindFloat32s, Repeated},
	{FieldExtension, NameExtension, KindInt64, Optional},
}

var fieldsByVersion = map[Version][]FieldSpec{
	V1: v1Fields,
	V2: v2Fields,
}

// Versions lists every known version, oldest first.
func Versions() []Version {
	return []Version{V1, V2}
}

// Fields returns the fields declared by v in id order.
func Fields(v Version) []FieldSpec {
	specs := fieldsByVersion[v]
	out := make([]FieldSpec, len(specs))
	copy(out, specs)
	return out
}

// Lookup finds a field of v by name.
func Lookup(v Version, name string) (FieldSpec, bool) {
	for _, spec := range fieldsByVersion[v] {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// LookupID finds a field of v by wire tag.
func LookupID(v Version, id FieldID) (FieldSpec, bool) {
	for _, spec := range fieldsByVersion[v] {
		if spec.ID == id {
			return spec, true
		}
	}
	return FieldSpec{}, false
}
