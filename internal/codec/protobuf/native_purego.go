//go:build purego

package protobuf

const nativeAvailable = false
