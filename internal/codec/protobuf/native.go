//go:build !purego

package protobuf

const nativeAvailable = true
