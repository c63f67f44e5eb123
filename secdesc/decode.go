// Package secdesc decodes an "sk" cell payload into a SecurityDescriptor,
// the pure external decoder keyitem's aggregate loader delegates to when a
// key names a non-sentinel security-key offset.
package secdesc

import (
	"fmt"

	"github.com/regfkit/keyitem/internal/format"
)

// SecurityDescriptor is the decoded, owned form of an "sk" cell: the
// self-relative descriptor bytes plus the cell's reference count. This
// package treats the descriptor itself as opaque — nothing downstream in
// this subsystem needs to interpret ACEs or SIDs.
type SecurityDescriptor struct {
	RefCount   uint32
	Descriptor []byte
}

// Decode parses cellBytes (the payload of an "sk" cell, signature included)
// into a SecurityDescriptor. The descriptor-length field is permitted to be
// smaller than the remaining cell payload (trailing bytes are alignment
// padding) but must not claim more bytes than the cell actually has —
// that's corruption, not padding, and is reported as an error rather than
// silently truncated.
func Decode(cellBytes []byte) (SecurityDescriptor, error) {
	if err := format.CheckedSignature(cellBytes, format.SKSignature); err != nil {
		return SecurityDescriptor{}, err
	}
	if len(cellBytes) < format.SKMinSize {
		return SecurityDescriptor{}, fmt.Errorf("secdesc: payload %d bytes shorter than minimum %d: %w", len(cellBytes), format.SKMinSize, format.ErrTruncated)
	}

	refCount, err := format.CheckedReadU32(cellBytes, format.SKRefCountOff)
	if err != nil {
		return SecurityDescriptor{}, err
	}
	descLen, err := format.CheckedReadU32(cellBytes, format.SKDescSizeOff)
	if err != nil {
		return SecurityDescriptor{}, err
	}
	descBytes, err := format.CheckedSlice(cellBytes, format.SKDescOff, int(descLen))
	if err != nil {
		return SecurityDescriptor{}, fmt.Errorf("secdesc: descriptor (%d bytes): %w", descLen, err)
	}

	owned := make([]byte, len(descBytes))
	copy(owned, descBytes)

	return SecurityDescriptor{RefCount: refCount, Descriptor: owned}, nil
}
