package gfx

import (
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// SoftBackend is the software rasterizer fallback. It draws into an
// RGBA image; Present scales the staged frame into the output image
// when the sizes differ.
type SoftBackend struct {
	frame    *image.RGBA
	out      *image.RGBA
	current  bool
	deleted  bool
	textures map[uint32]struct{}
}

func NewSoft() *SoftBackend {
	return &SoftBackend{textures: make(map[uint32]struct{})}
}

func (b *SoftBackend) API() API { return Software }

func (b *SoftBackend) MakeCurrent() error {
	if b.deleted {
		return fmt.Errorf("soft: context deleted")
	}
	b.current = true
	return nil
}

func (b *SoftBackend) ReleaseCurrent() { b.current = false }

func (b *SoftBackend) Capability(name string) error {
	return ErrUnsupported
}

func (b *SoftBackend) BeginFrame(w, h int) error {
	if !b.current {
		return fmt.Errorf("soft: BeginFrame without current context")
	}
	if w < 1 || h < 1 {
		return fmt.Errorf("soft: bad framebuffer size %dx%d", w, h)
	}
	b.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	return nil
}

func (b *SoftBackend) FillRect(x, y, w, h float32, rgba [4]float32) {
	if b.frame == nil {
		return
	}
	c := color.RGBA{
		R: uint8(clamp01(rgba[0]) * 255),
		G: uint8(clamp01(rgba[1]) * 255),
		B: uint8(clamp01(rgba[2]) * 255),
		A: uint8(clamp01(rgba[3]) * 255),
	}
	r := image.Rect(int(x), int(y), int(x+w), int(y+h)).Intersect(b.frame.Bounds())
	src := image.NewUniform(c)
	xdraw.Draw(b.frame, r, src, image.Point{}, xdraw.Over)
}

func (b *SoftBackend) EndFrame() error {
	if b.frame == nil {
		return fmt.Errorf("soft: EndFrame without BeginFrame")
	}
	if b.out == nil || b.out.Bounds() != b.frame.Bounds() {
		b.out = image.NewRGBA(b.frame.Bounds())
	}
	xdraw.Copy(b.out, image.Point{}, b.frame, b.frame.Bounds(), xdraw.Src, nil)
	return nil
}

// Frame returns the last presented image, scaled to the requested size
// when it differs from the framebuffer. Nil before the first present.
func (b *SoftBackend) Frame(w, h int) *image.RGBA {
	if b.out == nil {
		return nil
	}
	if b.out.Bounds().Dx() == w && b.out.Bounds().Dy() == h {
		return b.out
	}
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), b.out, b.out.Bounds(), xdraw.Src, nil)
	return scaled
}

func (b *SoftBackend) FreeTextures(ids []uint32) {
	for _, id := range ids {
		delete(b.textures, id)
	}
}

// TrackTexture registers a software "texture" so reclamation can be
// observed in tests.
func (b *SoftBackend) TrackTexture(id uint32) { b.textures[id] = struct{}{} }

// TextureCount reports live software textures.
func (b *SoftBackend) TextureCount() int { return len(b.textures) }

func (b *SoftBackend) DeleteContext() {
	b.deleted = true
	b.frame = nil
	b.out = nil
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
