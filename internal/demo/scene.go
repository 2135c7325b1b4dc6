// Package demo holds the rotating triangle scene shared by the glcore
// commands.
package demo

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/handle"
	"github.com/gogpu/glcore/recording"
	"github.com/gogpu/glcore/resource"
)

const vertexSrc = `#version 300 es
layout(location = 0) in vec2 a_position;
layout(location = 1) in vec2 a_uv;
uniform mat3 u_transform;
out vec2 v_uv;
void main() {
	v_uv = a_uv;
	gl_Position = vec4((u_transform * vec3(a_position, 1.0)).xy, 0.0, 1.0);
}`

const fragmentSrc = `#version 300 es
precision mediump float;
in vec2 v_uv;
uniform sampler2D u_texture;
uniform vec4 u_tint;
out vec4 fragColor;
void main() {
	fragColor = texture(u_texture, v_uv) * u_tint;
}`

// DefaultSpeed is the rotation speed in radians per second.
const DefaultSpeed = math32.Pi / 2

var (
	positions = []float32{0, 0.6, -0.52, -0.3, 0.52, -0.3}
	uvs       = []float32{0.5, 0, 0, 1, 1, 1}
	indices   = []uint16{0, 1, 2}
)

// Scene is a textured triangle spinning at a constant speed.
type Scene struct {
	res *resource.Manager

	program   handle.Handle
	positions handle.Handle
	uvs       handle.Handle
	indices   handle.Handle
	texture   handle.Handle

	// Speed in radians per second.
	Speed float32
	// Background is the clear color.
	Background gputypes.Color
	// Tint multiplies the texture color.
	Tint gputypes.Color

	angle, prev float32
	aspect      float32
}

// NewScene creates the scene's program, buffers and texture.
func NewScene(res *resource.Manager) (*Scene, error) {
	s := &Scene{
		res:        res,
		Speed:      DefaultSpeed,
		Background: gputypes.Color{R: 0.1, G: 0.1, B: 0.15, A: 1},
		Tint:       gputypes.Color{R: 1, G: 1, B: 1, A: 1},
		aspect:     1,
	}
	if err := s.create(); err != nil {
		return nil, errors.Join(err, s.Destroy())
	}
	return s, nil
}

func (s *Scene) create() error {
	var err error
	if s.program, err = s.res.CreateProgram(vertexSrc, fragmentSrc); err != nil {
		return err
	}
	attrib := resource.VertexLayout{Format: gputypes.VertexFormatFloat32x2}
	s.positions, err = s.res.CreateBuffer(resource.BufferDescriptor{
		Label: "positions", Usage: gputypes.BufferUsageVertex, Layout: attrib,
	}, littleEndian(positions))
	if err != nil {
		return err
	}
	s.uvs, err = s.res.CreateBuffer(resource.BufferDescriptor{
		Label: "uvs", Usage: gputypes.BufferUsageVertex, Layout: attrib,
	}, littleEndian(uvs))
	if err != nil {
		return err
	}
	s.indices, err = s.res.CreateBuffer(resource.BufferDescriptor{
		Label: "indices", Usage: gputypes.BufferUsageIndex, IndexFormat: gputypes.IndexFormatUint16,
	}, littleEndian(indices))
	if err != nil {
		return err
	}
	s.texture, err = s.res.CreateTextureFromImage(Checkerboard(8, 4), resource.TextureDescriptor{
		Label:     "checkerboard",
		MinFilter: gputypes.FilterModeNearest,
		MagFilter: gputypes.FilterModeNearest,
	})
	return err
}

// Resize keeps the triangle undistorted on a width x height viewport.
func (s *Scene) Resize(width, height int) {
	if width > 0 && height > 0 {
		s.aspect = float32(width) / float32(height)
	}
}

// Update advances the rotation by one fixed step.
func (s *Scene) Update(step float32) {
	s.prev = s.angle
	s.angle = math32.Mod(s.angle+s.Speed*step, 2*math32.Pi)
	if s.angle < s.prev {
		// Wrapped; keep interpolation monotonic.
		s.prev -= 2 * math32.Pi
	}
}

// Angle returns the rotation interpolated between the last two updates.
func (s *Scene) Angle(alpha float32) float32 {
	return s.prev + (s.angle-s.prev)*alpha
}

// Transform returns the column-major rotation matrix for an angle.
func (s *Scene) Transform(angle float32) [9]float32 {
	sin, cos := math32.Sincos(angle)
	return [9]float32{
		cos / s.aspect, sin, 0,
		-sin / s.aspect, cos, 0,
		0, 0, 1,
	}
}

// Render records the frame. alpha is the loop's blending factor.
func (s *Scene) Render(r *recording.Recorder, alpha float64) error {
	blend := recording.BlendAlpha()
	steps := []func() error{
		func() error { return r.Clear(s.Background) },
		func() error { return r.BindProgram(s.program) },
		func() error { return r.BindBuffer(0, s.positions) },
		func() error { return r.BindBuffer(1, s.uvs) },
		func() error { return r.BindBuffer(0, s.indices) },
		func() error { return r.BindTexture(0, s.texture) },
		func() error { return r.SetUniform("u_texture", recording.Int(0)) },
		func() error { return r.SetUniform("u_tint", recording.ColorValue(s.Tint)) },
		func() error {
			return r.SetUniform("u_transform", recording.Mat3(s.Transform(s.Angle(float32(alpha)))))
		},
		func() error { return r.SetBlend(&blend) },
		func() error {
			return r.Draw(gputypes.PrimitiveTopologyTriangleList, recording.Range{Count: len(indices)}, 1)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Destroy releases the scene's resources. Zero handles are skipped.
func (s *Scene) Destroy() error {
	var errs []error
	for _, h := range []handle.Handle{s.program, s.positions, s.uvs, s.indices, s.texture} {
		if h.IsZero() {
			continue
		}
		if err := s.res.Destroy(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Checkerboard returns a size x size image of cells x cells squares.
func Checkerboard(size, cells int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cell := max(size/cells, 1)
	for y := range size {
		for x := range size {
			c := color.RGBA{R: 255, G: 255, B: 255, A: 255}
			if (x/cell+y/cell)%2 == 1 {
				c = color.RGBA{R: 64, G: 128, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// littleEndian encodes fixed-size values as vertex or index data.
func littleEndian[T float32 | uint16](v []T) []byte {
	b, _ := binary.Append(nil, binary.LittleEndian, v)
	return b
}
