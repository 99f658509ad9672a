// Package builtin assembles the registry of every codec this module ships.
package builtin

import (
	"github.com/danmuck/wavewire/internal/codec"
	"github.com/danmuck/wavewire/internal/codec/msgpack"
	"github.com/danmuck/wavewire/internal/codec/protobuf"
	"github.com/danmuck/wavewire/internal/codec/tlvcodec"
)

// Default registers protobuf, msgpack and tlv with every backend the build
// provides.
func Default() *codec.Registry {
	return mustRegister(protobuf.New(), msgpack.New(), tlvcodec.New())
}

// Portable registers the same codecs with native backends hidden, so every
// native request falls back.
func Portable() *codec.Registry {
	return mustRegister(protobuf.New(protobuf.WithoutNative()), msgpack.New(msgpack.WithoutNative()), tlvcodec.New())
}

func mustRegister(codecs ...codec.Codec) *codec.Registry {
	reg := codec.NewRegistry()
	for _, c := range codecs {
		if err := reg.Register(c); err != nil {
			panic(err)
		}
	}
	return reg
}
