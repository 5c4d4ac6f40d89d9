// Package endian provides byte order utilities for the chunk headers written
// by the codec package.
//
// Compressed chunks carry a small self-describing header (codec id, element
// size, uncompressed length) ahead of the compressor's own output so that
// a decompression context can recover sizing without side metadata, as
// required by the codec adapter's contract. This package extends Go's
// standard encoding/binary package by combining ByteOrder and
// AppendByteOrder into a single interface so header encode/decode code
// doesn't have to juggle two.
//
// # Basic usage
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, uncompressedLen)
//
// # Thread safety
//
// All functions in this package are safe for concurrent use; the returned
// EndianEngine values are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface. binary.LittleEndian and binary.BigEndian both
// satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// IsNativeBigEndian reports whether the host is big-endian.
func IsNativeBigEndian() bool {
	return CheckEndianness() == binary.BigEndian
}

// GetLittleEndianEngine returns the little-endian engine. This is the
// default used for chunk headers so that compressed byte buffers are
// portable across hosts regardless of native byte order.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
