//go:build !purego

package msgpack

const nativeAvailable = true
