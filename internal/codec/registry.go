package codec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrCodecExists  = errors.New("codec: already registered")
	ErrCodecNil     = errors.New("codec: nil codec")
	ErrUnknownCodec = errors.New("codec: unknown codec")
)

// Registry stores codecs by name.
type Registry struct {
	items map[string]Codec
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Codec)}
}

func (r *Registry) Register(c Codec) error {
	if c == nil {
		return ErrCodecNil
	}
	name := strings.TrimSpace(c.Name())
	if name == "" {
		return fmt.Errorf("codec: empty name")
	}
	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %s", ErrCodecExists, name)
	}
	r.items[name] = c
	return nil
}

func (r *Registry) Resolve(name string) (Codec, error) {
	c, ok := r.items[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownCodec, name, strings.Join(r.Names(), ", "))
	}
	return c, nil
}

// Names returns registered codec names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
