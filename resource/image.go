package resource

import (
	"image"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/glcore/handle"
)

// CreateTextureFromImage uploads img as an RGBA8 texture.
//
// desc.Format must be TextureFormatRGBA8Unorm, TextureFormatRGBA8UnormSrgb
// or left undefined (RGBA8Unorm). When desc.Width and desc.Height are zero
// the image bounds are used; otherwise the image is scaled to fit with
// bilinear filtering.
func (m *Manager) CreateTextureFromImage(img image.Image, desc TextureDescriptor) (handle.Handle, error) {
	const op = "create texture from image"

	switch desc.Format {
	case gputypes.TextureFormatUndefined:
		desc.Format = gputypes.TextureFormatRGBA8Unorm
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
	default:
		return handle.Handle{}, opError(op, ErrInvalidDescriptor, "images upload as RGBA8, got format %d", desc.Format)
	}
	if img == nil {
		return handle.Handle{}, opError(op, ErrInvalidDescriptor, "nil image")
	}

	src := img.Bounds()
	if desc.Width == 0 && desc.Height == 0 {
		desc.Width, desc.Height = src.Dx(), src.Dy()
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return handle.Handle{}, opError(op, ErrInvalidDescriptor, "size %dx%d must be positive", desc.Width, desc.Height)
	}
	// Reject before allocating the converted pixels.
	if err := m.checkTextureSize(op, desc.Width, desc.Height); err != nil {
		return handle.Handle{}, err
	}
	// #nosec G115 -- both dimensions are positive and bounded by the maximum
	if err := m.checkBudget(op, uint64(desc.Width)*uint64(desc.Height)*4); err != nil {
		return handle.Handle{}, err
	}

	return m.CreateTexture(desc, rgbaPixels(img, desc.Width, desc.Height))
}

// rgbaPixels returns img as tightly packed RGBA bytes of size w×h.
func rgbaPixels(img image.Image, w, h int) []byte {
	src := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && src.Min == (image.Point{}) &&
		src.Dx() == w && src.Dy() == h && rgba.Stride == 4*w {
		return rgba.Pix[:4*w*h]
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if src.Dx() == w && src.Dy() == h {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	}
	return dst.Pix
}
