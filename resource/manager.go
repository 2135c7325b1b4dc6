package resource

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/gl"
	"github.com/gogpu/glcore/handle"
	"github.com/gogpu/glcore/internal/slogx"
	"github.com/gogpu/glcore/timeline"
)

// Binder performs the bindings uploads need. The state cache implements it
// so that its view of the context never diverges from the real bindings.
type Binder interface {
	// BindUploadBuffer binds b to target for an upload.
	BindUploadBuffer(h handle.Handle, target gl.Enum, b gl.Buffer)
	// BindUploadTexture binds t to the active texture unit for an upload.
	BindUploadTexture(h handle.Handle, t gl.Texture)
	// Invalidate forgets every binding that references h.
	Invalidate(h handle.Handle)
}

// directBinder binds straight through the context. Used when no state
// cache is attached.
type directBinder struct{ ctx gl.Context }

func (d directBinder) BindUploadBuffer(_ handle.Handle, target gl.Enum, b gl.Buffer) {
	d.ctx.BindBuffer(target, b)
}

func (d directBinder) BindUploadTexture(_ handle.Handle, t gl.Texture) {
	d.ctx.BindTexture(gl.TEXTURE_2D, t)
}

func (directBinder) Invalidate(handle.Handle) {}

// Option configures a Manager.
type Option func(*Manager)

// WithBinder routes upload bindings through b.
func WithBinder(b Binder) Option {
	return func(m *Manager) {
		if b != nil {
			m.binder = b
		}
	}
}

// WithMaxTextureSize caps texture dimensions. Zero or negative queries the
// context.
func WithMaxTextureSize(n int) Option {
	return func(m *Manager) { m.maxTexture = n }
}

// WithMemoryBudget limits the total bytes of live buffers and textures.
// Zero disables the budget.
func WithMemoryBudget(bytes uint64) Option {
	return func(m *Manager) { m.budget = bytes }
}

// WithErrorChecks makes every upload query the context error state.
func WithErrorChecks(enabled bool) Option {
	return func(m *Manager) { m.checkErrors = enabled }
}

// pending is a destroyed resource awaiting reclamation.
type pending struct {
	token  timeline.Token
	handle handle.Handle
}

// Manager creates, updates and destroys GPU resources.
//
// Create and destroy paths are serialized by a mutex. All methods call into
// the graphics context and must run on the goroutine that owns it.
type Manager struct {
	mu sync.Mutex

	ctx      gl.Context
	registry *handle.Registry
	timeline *timeline.Timeline
	binder   Binder

	maxTexture  int
	budget      uint64
	checkErrors bool

	used    uint64
	queue   []pending
	closed  bool
	counter Stats
}

// NewManager creates a manager over ctx. Handles come from reg; deferred
// destruction follows tl. Panics if any argument is nil.
func NewManager(ctx gl.Context, reg *handle.Registry, tl *timeline.Timeline, opts ...Option) *Manager {
	if ctx == nil || reg == nil || tl == nil {
		panic("resource: NewManager requires a context, registry and timeline")
	}
	m := &Manager{
		ctx:      ctx,
		registry: reg,
		timeline: tl,
		binder:   directBinder{ctx},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.maxTexture <= 0 {
		m.maxTexture = ctx.GetInteger(gl.MAX_TEXTURE_SIZE)
		if m.maxTexture <= 0 {
			m.maxTexture = int(gputypes.DefaultLimits().MaxTextureDimension2D)
		}
	}
	return m
}

// Registry returns the handle registry backing the manager.
func (m *Manager) Registry() *handle.Registry { return m.registry }

// MaxTextureSize returns the largest accepted texture dimension.
func (m *Manager) MaxTextureSize() int { return m.maxTexture }

// CreateBuffer creates a buffer and uploads data into it.
func (m *Manager) CreateBuffer(desc BufferDescriptor, data []byte) (handle.Handle, error) {
	const op = "create buffer"

	target, ok := bufferTarget(desc.Usage)
	if !ok {
		return handle.Handle{}, opError(op, ErrInvalidDescriptor, "usage must contain exactly one of vertex, index or uniform")
	}
	size := desc.Size
	if size == 0 {
		size = len(data)
	}
	if size <= 0 {
		return handle.Handle{}, opError(op, ErrInvalidDescriptor, "size must be positive")
	}
	if len(data) > size {
		return handle.Handle{}, opError(op, ErrOutOfRange, "%d bytes of data for a %d byte buffer", len(data), size)
	}
	meta := &Buffer{
		Label:       desc.Label,
		Usage:       desc.Usage,
		Target:      target,
		Size:        size,
		Layout:      desc.Layout,
		IndexFormat: desc.IndexFormat,
	}
	switch target {
	case gl.ARRAY_BUFFER:
		if _, _, _, err := desc.Layout.Attrib(); err != nil {
			return handle.Handle{}, opError(op, ErrInvalidDescriptor, "%v", err)
		}
		if desc.Layout.Stride < 0 || desc.Layout.Offset < 0 || desc.Layout.Offset >= size {
			return handle.Handle{}, opError(op, ErrInvalidDescriptor, "layout stride %d offset %d", desc.Layout.Stride, desc.Layout.Offset)
		}
	case gl.ELEMENT_ARRAY_BUFFER:
		if _, _, ok := indexType(desc.IndexFormat); !ok {
			return handle.Handle{}, opError(op, ErrInvalidDescriptor, "index buffers need a uint16 or uint32 index format")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return handle.Handle{}, ErrClosed
	}
	// #nosec G115 -- size validated positive above
	if err := m.reserveLocked(op, uint64(size)); err != nil {
		return handle.Handle{}, err
	}

	buf := m.ctx.CreateBuffer()
	if !buf.Valid() {
		return handle.Handle{}, opError(op, ErrObjectCreation, "buffer")
	}
	h := m.registry.Allocate(handle.KindBuffer)
	if err := m.registry.Bind(h, buf, meta); err != nil {
		m.ctx.DeleteBuffer(buf)
		return handle.Handle{}, fmt.Errorf("%s: %w", op, err)
	}

	usage := gl.STATIC_DRAW
	if desc.Usage&gputypes.BufferUsageCopyDst != 0 {
		usage = gl.DYNAMIC_DRAW
	}
	m.binder.BindUploadBuffer(h, target, buf)
	m.ctx.BufferData(target, size, data, usage)

	m.used += uint64(size)
	m.counter.Buffers++
	m.counter.BufferBytes += uint64(size)
	if err := m.uploadErrorLocked(op, h); err != nil {
		return handle.Handle{}, err
	}
	slogx.Logger().Debug("resource: buffer created", "handle", h, "label", desc.Label, "size", size)
	return h, nil
}

// UpdateBuffer writes data at offset. The buffer must have been created
// with BufferUsageCopyDst.
func (m *Manager) UpdateBuffer(h handle.Handle, offset int, data []byte) error {
	const op = "update buffer"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	slot, err := m.resolveLocked(op, h, handle.KindBuffer)
	if err != nil {
		return err
	}
	meta := slot.Meta.(*Buffer)
	if meta.Usage&gputypes.BufferUsageCopyDst == 0 {
		return opError(op, ErrUsage, "buffer %q lacks CopyDst", meta.Label)
	}
	if offset < 0 || offset+len(data) > meta.Size {
		return opError(op, ErrOutOfRange, "write [%d, %d) outside %d bytes", offset, offset+len(data), meta.Size)
	}
	if len(data) == 0 {
		return nil
	}
	m.binder.BindUploadBuffer(h, meta.Target, slot.Backing.(gl.Buffer))
	m.ctx.BufferSubData(meta.Target, offset, data)
	return m.uploadErrorLocked(op, handle.Handle{})
}

// CreateTexture creates a 2D texture. Nil pixels leave the contents
// undefined; otherwise len(pixels) must be Width*Height*BytesPerPixel.
func (m *Manager) CreateTexture(desc TextureDescriptor, pixels []byte) (handle.Handle, error) {
	const op = "create texture"

	f, ok := textureFormats[desc.Format]
	if !ok {
		return handle.Handle{}, opError(op, ErrInvalidDescriptor, "unsupported format %d", desc.Format)
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return handle.Handle{}, opError(op, ErrInvalidDescriptor, "size %dx%d must be positive", desc.Width, desc.Height)
	}
	if err := m.checkTextureSize(op, desc.Width, desc.Height); err != nil {
		return handle.Handle{}, err
	}
	if f.depth && desc.Mipmaps {
		return handle.Handle{}, opError(op, ErrInvalidDescriptor, "depth textures cannot have mipmaps")
	}
	size := desc.Width * desc.Height * f.bpp
	if pixels != nil && len(pixels) != size {
		return handle.Handle{}, opError(op, ErrInvalidDescriptor, "got %d bytes of pixels, want %d", len(pixels), size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return handle.Handle{}, ErrClosed
	}
	// #nosec G115 -- size is positive
	if err := m.reserveLocked(op, uint64(size)); err != nil {
		return handle.Handle{}, err
	}

	tex := m.ctx.CreateTexture()
	if !tex.Valid() {
		return handle.Handle{}, opError(op, ErrObjectCreation, "texture")
	}
	meta := &Texture{
		Label:   desc.Label,
		Format:  desc.Format,
		Width:   desc.Width,
		Height:  desc.Height,
		Mipmaps: desc.Mipmaps,
		Size:    size,
		upload:  f,
	}
	h := m.registry.Allocate(handle.KindTexture)
	if err := m.registry.Bind(h, tex, meta); err != nil {
		m.ctx.DeleteTexture(tex)
		return handle.Handle{}, fmt.Errorf("%s: %w", op, err)
	}

	m.binder.BindUploadTexture(h, tex)
	minFilter, magFilter := desc.MinFilter, desc.MagFilter
	if f.depth {
		minFilter, magFilter = gputypes.FilterModeNearest, gputypes.FilterModeNearest
	}
	m.ctx.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, int(filterEnum(minFilter, desc.Mipmaps)))
	m.ctx.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, int(filterEnum(magFilter, false)))
	m.ctx.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, int(wrapEnum(desc.WrapU)))
	m.ctx.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, int(wrapEnum(desc.WrapV)))
	m.ctx.TexImage2D(gl.TEXTURE_2D, 0, f.internal, desc.Width, desc.Height, f.format, f.ty, pixels)
	if desc.Mipmaps && pixels != nil {
		m.ctx.GenerateMipmap(gl.TEXTURE_2D)
	}

	m.used += uint64(size)
	m.counter.Textures++
	m.counter.TextureBytes += uint64(size)
	if err := m.uploadErrorLocked(op, h); err != nil {
		return handle.Handle{}, err
	}
	slogx.Logger().Debug("resource: texture created", "handle", h, "label", desc.Label,
		"width", desc.Width, "height", desc.Height)
	return h, nil
}

// UpdateTexture replaces the w×h texel region at (x, y).
func (m *Manager) UpdateTexture(h handle.Handle, x, y, w, ht int, pixels []byte) error {
	const op = "update texture"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	slot, err := m.resolveLocked(op, h, handle.KindTexture)
	if err != nil {
		return err
	}
	meta := slot.Meta.(*Texture)
	if x < 0 || y < 0 || w <= 0 || ht <= 0 || x+w > meta.Width || y+ht > meta.Height {
		return opError(op, ErrOutOfRange, "region %d,%d %dx%d outside %dx%d", x, y, w, ht, meta.Width, meta.Height)
	}
	if want := w * ht * meta.upload.bpp; len(pixels) != want {
		return opError(op, ErrInvalidDescriptor, "got %d bytes of pixels, want %d", len(pixels), want)
	}

	m.binder.BindUploadTexture(h, slot.Backing.(gl.Texture))
	m.ctx.TexSubImage2D(gl.TEXTURE_2D, 0, x, y, w, ht, meta.upload.format, meta.upload.ty, pixels)
	if meta.Mipmaps {
		m.ctx.GenerateMipmap(gl.TEXTURE_2D)
	}
	return m.uploadErrorLocked(op, handle.Handle{})
}

// Destroy requests destruction of h. The handle stops resolving at once.
// While any frame is in flight the backing object is kept until the newest
// issued frame retires; otherwise it is reclaimed immediately.
func (m *Manager) Destroy(h handle.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if err := m.registry.Release(h); err != nil {
		return &ResourceError{Op: "destroy", Err: err}
	}
	if m.timeline.InFlight() {
		tok := m.timeline.Issued()
		m.queue = append(m.queue, pending{token: tok, handle: h})
		slogx.Logger().Debug("resource: destroy deferred", "handle", h, "token", tok)
		return nil
	}
	m.reclaimLocked(h)
	return nil
}

// Collect reclaims every deferred destruction queued under a token at or
// before retired. It returns the number of resources reclaimed.
func (m *Manager) Collect(retired timeline.Token) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	keep := m.queue[:0]
	for _, p := range m.queue {
		if p.token <= retired {
			m.reclaimLocked(p.handle)
			n++
			continue
		}
		keep = append(keep, p)
	}
	clear(m.queue[len(keep):])
	m.queue = keep
	return n
}

// Close reclaims every queued and live resource. Later calls return
// ErrClosed. Close is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	for _, p := range m.queue {
		m.reclaimLocked(p.handle)
	}
	m.queue = nil

	var live []handle.Handle
	m.registry.Each(func(h handle.Handle, _ *handle.Slot) { live = append(live, h) })
	for _, h := range live {
		m.reclaimLocked(h)
	}
	m.closed = true
	slogx.Logger().Info("resource: manager closed", "reclaimed", len(live))
	return nil
}

// Stats returns a snapshot of resource usage.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.counter
	s.PendingDestroys = len(m.queue)
	s.UsedBytes = m.used
	s.BudgetBytes = m.budget
	return s
}

func (m *Manager) resolveLocked(op string, h handle.Handle, kind handle.Kind) (*handle.Slot, error) {
	if h.Kind() != kind {
		return nil, &ResourceError{Op: op, Err: handle.ErrInvalidHandle, Reason: fmt.Sprintf("%v is not a %v", h, kind)}
	}
	slot, err := m.registry.Resolve(h)
	if err != nil {
		return nil, &ResourceError{Op: op, Err: err}
	}
	return slot, nil
}

// checkTextureSize rejects dimensions above the maximum texture size.
func (m *Manager) checkTextureSize(op string, w, h int) error {
	if w > m.maxTexture || h > m.maxTexture {
		return opError(op, ErrInvalidDescriptor, "size %dx%d exceeds maximum %d", w, h, m.maxTexture)
	}
	return nil
}

// checkBudget reports whether size bytes would fit the budget now without
// reserving them.
func (m *Manager) checkBudget(op string, size uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return m.reserveLocked(op, size)
}

func (m *Manager) reserveLocked(op string, size uint64) error {
	if m.budget == 0 || m.used+size <= m.budget {
		return nil
	}
	return opError(op, ErrBudgetExceeded, "%d bytes requested, %d of %d in use", size, m.used, m.budget)
}

// uploadErrorLocked checks the context error state when error checks are
// enabled. A failed creation of h is rolled back when h is non-zero.
func (m *Manager) uploadErrorLocked(op string, h handle.Handle) error {
	if !m.checkErrors {
		return nil
	}
	code := m.ctx.GetError()
	if code == gl.NO_ERROR {
		return nil
	}
	if !h.IsZero() {
		m.used -= m.deleteBackingLocked(h)
		m.binder.Invalidate(h)
		_ = m.registry.Free(h)
	}
	return opError(op, ErrContext, "%s", gl.ErrorString(code))
}

// reclaimLocked deletes the backing object and frees the slot.
func (m *Manager) reclaimLocked(h handle.Handle) {
	size := m.deleteBackingLocked(h)
	m.binder.Invalidate(h)
	if err := m.registry.Free(h); err != nil {
		slogx.Logger().Warn("resource: free failed", "handle", h, "err", err)
	}
	m.used -= size
	m.counter.Reclaimed++
	slogx.Logger().Debug("resource: reclaimed", "handle", h, "bytes", size)
}

func (m *Manager) deleteBackingLocked(h handle.Handle) uint64 {
	slot, err := m.registry.Lookup(h)
	if err != nil {
		return 0
	}
	var size uint64
	switch backing := slot.Backing.(type) {
	case gl.Buffer:
		meta := slot.Meta.(*Buffer)
		size = uint64(meta.Size)
		m.ctx.DeleteBuffer(backing)
		m.counter.Buffers--
		m.counter.BufferBytes -= size
	case gl.Texture:
		meta := slot.Meta.(*Texture)
		size = uint64(meta.Size)
		m.ctx.DeleteTexture(backing)
		m.counter.Textures--
		m.counter.TextureBytes -= size
	case gl.Program:
		m.ctx.DeleteProgram(backing)
		m.counter.Programs--
	}
	return size
}
