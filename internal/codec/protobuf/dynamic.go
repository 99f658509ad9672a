package protobuf

import (
	"fmt"
	"sync"

	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/schema"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

const messageName = "WaveformData"

var (
	descOnce  sync.Once
	descByVer map[schema.Version]protoreflect.MessageDescriptor
	descErr   error
)

// descriptors builds one WaveformData descriptor per schema version.
func descriptors() (map[schema.Version]protoreflect.MessageDescriptor, error) {
	descOnce.Do(func() {
		descByVer = make(map[schema.Version]protoreflect.MessageDescriptor)
		for _, v := range schema.Versions() {
			md, err := buildDescriptor(v)
			if err != nil {
				descErr = err
				return
			}
			descByVer[v] = md
		}
	})
	return descByVer, descErr
}

// FileDescriptorProto renders the schema of v as a protobuf file descriptor.
func FileDescriptorProto(v schema.Version) *descriptorpb.FileDescriptorProto {
	msg := &descriptorpb.DescriptorProto{Name: proto.String(messageName)}
	for _, spec := range schema.Fields(v) {
		fd := &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(spec.Name),
			Number: proto.Int32(int32(spec.ID)),
		}
		switch spec.Kind {
		case schema.KindInt64:
			fd.Type = descriptorpb.FieldDescriptorProto_TYPE_INT64.Enum()
		case schema.KindUint64:
			fd.Type = descriptorpb.FieldDescriptorProto_TYPE_UINT64.Enum()
		case schema.KindUint32:
			fd.Type = descriptorpb.FieldDescriptorProto_TYPE_UINT32.Enum()
		case schema.KindFloat32s:
			fd.Type = descriptorpb.FieldDescriptorProto_TYPE_FLOAT.Enum()
		}
		switch spec.Presence {
		case schema.Required:
			fd.Label = descriptorpb.FieldDescriptorProto_LABEL_REQUIRED.Enum()
		case schema.Repeated:
			fd.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
			fd.Options = &descriptorpb.FieldOptions{Packed: proto.Bool(true)}
		default:
			fd.Label = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
		}
		msg.Field = append(msg.Field, fd)
	}
	return &descriptorpb.FileDescriptorProto{
		Name:        proto.String(fmt.Sprintf("wavewire/waveform_%s.proto", v)),
		Package:     proto.String("wavewire." + v.String()),
		Syntax:      proto.String("proto2"),
		MessageType: []*descriptorpb.DescriptorProto{msg},
	}
}

func buildDescriptor(v schema.Version) (protoreflect.MessageDescriptor, error) {
	fd, err := protodesc.NewFile(FileDescriptorProto(v), new(protoregistry.Files))
	if err != nil {
		return nil, fmt.Errorf("%s: build %s descriptor: %w", Name, v, err)
	}
	md := fd.Messages().ByName(messageName)
	if md == nil {
		return nil, fmt.Errorf("%s: %s descriptor missing %s", Name, v, messageName)
	}
	return md, nil
}

type dynamicEncoder struct {
	descs map[schema.Version]protoreflect.MessageDescriptor
}

func (*dynamicEncoder) Backend() codec.Backend               { return codec.PortableFallback }
func (*dynamicEncoder) Representation() codec.Representation { return codec.NativeRecord }

func (*dynamicEncoder) Prepare(rec *schema.Record) (codec.Input, error) {
	return codec.PrepareRecord(rec)
}

func (e *dynamicEncoder) Encode(dst []byte, in codec.Input) ([]byte, error) {
	if in.Representation != codec.NativeRecord || in.Record == nil {
		return nil, codec.ErrInputMismatch
	}
	md, ok := e.descs[in.Version]
	if !ok {
		return nil, fmt.Errorf("%s: no descriptor for %s", Name, in.Version)
	}
	m := dynamicpb.NewMessage(md)
	fields := md.Fields()
	for _, spec := range schema.Fields(in.Version) {
		v, ok := in.Record.FieldValue(spec)
		if !ok {
			continue
		}
		fd := fields.ByNumber(protoreflect.FieldNumber(spec.ID))
		switch spec.Kind {
		case schema.KindInt64:
			m.Set(fd, protoreflect.ValueOfInt64(v.Int))
		case schema.KindUint64:
			m.Set(fd, protoreflect.ValueOfUint64(v.Uint))
		case schema.KindUint32:
			m.Set(fd, protoreflect.ValueOfUint32(uint32(v.Uint)))
		case schema.KindFloat32s:
			list := m.Mutable(fd).List()
			for _, f := range v.Floats {
				list.Append(protoreflect.ValueOfFloat32(f))
			}
		}
	}
	return proto.MarshalOptions{Deterministic: true}.MarshalAppend(dst, m)
}

type dynamicDecoder struct {
	descs map[schema.Version]protoreflect.MessageDescriptor
}

func (*dynamicDecoder) Backend() codec.Backend { return codec.PortableFallback }

func (d *dynamicDecoder) Decode(data []byte, reader schema.Version) (codec.Message, error) {
	md, ok := d.descs[reader]
	if !ok {
		return nil, fmt.Errorf("%s: no descriptor for %s", Name, reader)
	}
	m := dynamicpb.NewMessage(md)
	// Required fields are checked by the resolver, not the runtime.
	if err := (proto.UnmarshalOptions{AllowPartial: true}).Unmarshal(data, m); err != nil {
		return nil, codec.Malformed("%s: %v", Name, err)
	}
	return &dynamicMessage{m: m}, nil
}

// dynamicMessage keeps undeclared data as the runtime's opaque unknown-field
// blob, so it cannot enumerate it.
type dynamicMessage struct {
	m *dynamicpb.Message
}

func (d *dynamicMessage) Lookup(id schema.FieldID) (schema.Value, bool) {
	fd := d.m.Descriptor().Fields().ByNumber(protoreflect.FieldNumber(id))
	if fd == nil || !d.m.Has(fd) {
		return schema.Value{}, false
	}
	v := d.m.Get(fd)
	switch fd.Kind() {
	case protoreflect.Int64Kind:
		return schema.IntValue(v.Int()), true
	case protoreflect.Uint64Kind:
		return schema.Uint64Value(v.Uint()), true
	case protoreflect.Uint32Kind:
		return schema.Uint32Value(uint32(v.Uint())), true
	case protoreflect.FloatKind:
		list := v.List()
		out := make([]float32, list.Len())
		for i := range out {
			out[i] = float32(list.Get(i).Float())
		}
		return schema.FloatsValue(out), true
	default:
		return schema.Value{}, false
	}
}

func (*dynamicMessage) UnknownFields() ([]codec.RawField, error) {
	return nil, fmt.Errorf("%w: %s portable backend", codec.ErrUnsupportedIntrospection, Name)
}

func (d *dynamicMessage) Marshal() ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true, AllowPartial: true}.Marshal(d.m)
}
