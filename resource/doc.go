// Package resource manages the lifetime of GPU buffers, textures and shader
// programs.
//
// Every resource is identified by a handle.Handle issued by the registry the
// Manager was built with. Creation validates the descriptor, creates the
// context object and uploads the initial data. Usage flags come from
// gputypes so descriptors read the same as their WebGPU counterparts:
//
//	vb, err := mgr.CreateBuffer(resource.BufferDescriptor{
//		Label:  "triangle",
//		Usage:  gputypes.BufferUsageVertex,
//		Layout: resource.VertexLayout{Format: gputypes.VertexFormatFloat32x2},
//	}, vertices)
//
// # Deferred destruction
//
// Destroy invalidates a handle immediately, so no new command can reference
// it, but frames already recorded may still use the backing object. While a
// frame is in flight the object is queued under the newest issued frame
// token and reclaimed by Collect once that token retires. Slots are reused
// only after reclamation, and a reused slot carries a new generation.
package resource
