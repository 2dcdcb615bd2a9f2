package gfx

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/mawren/thicket/shell/buffer"
)

// NativeContext is the platform's handle to a hardware GL context.
type NativeContext interface {
	MakeContextCurrent()
	DetachCurrentContext()
	SwapBuffers()
}

// GLBackend renders rect batches through OpenGL 3.3 core.
type GLBackend struct {
	ctx     NativeContext
	program uint32
	vao     uint32
	vbo     uint32
	verts   *buffer.Buffer[float32]
	fbW     int
	fbH     int
	deleted bool
}

// NewGL compiles the shader pipeline on the given context. The context
// is made current for the duration of initialization and released
// before returning, on success and on error.
func NewGL(ctx NativeContext) (*GLBackend, error) {
	ctx.MakeContextCurrent()
	defer ctx.DetachCurrentContext()

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}

	b := &GLBackend{ctx: ctx, verts: buffer.WithCapacity[float32](4096)}

	var err error
	b.program, err = makeProgram(vertexSource, fragmentSource)
	if err != nil {
		return nil, err
	}

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)

	// layout(location = 0) in vec2 aPos;
	// layout(location = 1) in vec4 aColor;
	const stride = 6 * 4 // bytes
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(0)))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(2*4)))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	return b, nil
}

func (b *GLBackend) API() API { return Hardware }

func (b *GLBackend) MakeCurrent() error {
	if b.deleted {
		return fmt.Errorf("gl: context deleted")
	}
	b.ctx.MakeContextCurrent()
	return nil
}

func (b *GLBackend) ReleaseCurrent() { b.ctx.DetachCurrentContext() }

func (b *GLBackend) Capability(name string) error {
	switch name {
	case CapSwapControl, CapTransparent:
		return nil
	}
	return ErrUnsupported
}

func (b *GLBackend) BeginFrame(w, h int) error {
	b.fbW, b.fbH = w, h
	b.verts.Release()
	b.verts = buffer.WithCapacity[float32](4096)
	gl.Viewport(0, 0, int32(w), int32(h))
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

// FillRect stages two triangles in NDC. Top-left pixel origin.
func (b *GLBackend) FillRect(x, y, w, h float32, rgba [4]float32) {
	if b.fbW == 0 || b.fbH == 0 {
		return
	}
	toNDC := func(px, py float32) (float32, float32) {
		return px/float32(b.fbW)*2 - 1, 1 - py/float32(b.fbH)*2
	}
	x0, y0 := toNDC(x, y)
	x1, y1 := toNDC(x+w, y+h)
	r, g, bl, a := rgba[0], rgba[1], rgba[2], rgba[3]
	b.verts.Append(
		x0, y0, r, g, bl, a,
		x1, y0, r, g, bl, a,
		x1, y1, r, g, bl, a,
		x0, y0, r, g, bl, a,
		x1, y1, r, g, bl, a,
		x0, y1, r, g, bl, a,
	)
}

func (b *GLBackend) EndFrame() error {
	verts := b.verts.View()
	if len(verts) > 0 {
		gl.UseProgram(b.program)
		gl.BindVertexArray(b.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STREAM_DRAW)
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(verts)/6))
		gl.BindVertexArray(0)
		gl.UseProgram(0)
	}
	b.ctx.SwapBuffers()
	return nil
}

func (b *GLBackend) FreeTextures(ids []uint32) {
	if len(ids) == 0 || b.deleted {
		return
	}
	gl.DeleteTextures(int32(len(ids)), &ids[0])
}

func (b *GLBackend) DeleteContext() {
	if b.deleted {
		return
	}
	b.deleted = true
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
	}
	if b.program != 0 {
		gl.DeleteProgram(b.program)
	}
	b.verts.Release()
}

// --- Shader utilities ---

const vertexSource = `
#version 330 core
layout(location=0) in vec2 aPos;
layout(location=1) in vec4 aColor;
out vec4 vColor;
void main() {
    vColor = aColor;
    gl_Position = vec4(aPos, 0.0, 1.0);
}
` + "\x00"

const fragmentSource = `
#version 330 core
in vec4 vColor;
out vec4 FragColor;
void main() {
    FragColor = vColor;
}
` + "\x00"

func makeShader(src string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	defer free()
	gl.ShaderSource(sh, 1, csrc, nil)
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("shader compile error: %s", log)
	}
	return sh, nil
}

func makeProgram(vsSrc, fsSrc string) (uint32, error) {
	vs, err := makeShader(vsSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := makeShader(fsSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("program link error: %s", log)
	}
	return prog, nil
}
