// Package handle issues generation-checked identifiers for GPU resources.
//
// A Handle is an index into the Registry's slot arena plus the generation
// the slot had when the handle was issued. Freeing a slot bumps its
// generation, so every handle issued before the free becomes stale and
// fails to resolve in O(1), even after the index is reused.
//
// The Registry is the single source of truth for whether a resource still
// exists. Slots carry the context-native backing object and the resource
// metadata attached by the resource manager.
package handle

import (
	"errors"
	"fmt"
)

// ErrInvalidHandle is returned for stale, unknown, released or
// kind-mismatched handles.
var ErrInvalidHandle = errors.New("handle: invalid handle")

// Kind identifies the type of resource a handle refers to.
type Kind uint8

const (
	// KindNone is the kind of the zero Handle.
	KindNone Kind = iota
	// KindBuffer is a vertex, index or uniform buffer.
	KindBuffer
	// KindTexture is a 2D texture.
	KindTexture
	// KindProgram is a linked shader program.
	KindProgram
)

var kindNames = [...]string{
	KindNone:    "None",
	KindBuffer:  "Buffer",
	KindTexture: "Texture",
	KindProgram: "Program",
}

// String returns the string representation of a Kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Handle is an opaque, comparable reference to a resource slot.
// The zero value never resolves.
type Handle struct {
	index      uint32
	generation uint32
	kind       Kind
}

// Index returns the slot index.
func (h Handle) Index() uint32 { return h.index }

// Generation returns the slot generation the handle was issued with.
func (h Handle) Generation() uint32 { return h.generation }

// Kind returns the resource kind.
func (h Handle) Kind() Kind { return h.kind }

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h == Handle{} }

// String formats the handle as Kind(index:generation).
func (h Handle) String() string {
	return fmt.Sprintf("%s(%d:%d)", h.kind, h.index, h.generation)
}

// invalid wraps ErrInvalidHandle with the offending handle.
func invalid(h Handle, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidHandle, h, reason)
}
