// Package scanout presents the TV and DRC scan buffers in an SDL2 window
// through OpenGL. The TV image fills the window and the DRC image is drawn
// as an inset in the bottom-right corner.
package scanout

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/gx2res/internal/gx2"
	"github.com/Faultbox/gx2res/internal/gx2/host"
	"github.com/Faultbox/gx2res/internal/logger"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title  string
	Width  int
	Height int
	VSync  bool
	// DRCScale is the inset width as a fraction of the window width.
	DRCScale float32
}

// Display is a gx2.Display that keeps the host scan buffers and mirrors
// each copy into a GL texture.
type Display struct {
	*host.Display

	config    Config
	sdlWindow *sdl.Window
	glContext sdl.GLContext

	readFBO uint32
	tex     map[gx2.ScanTarget]uint32
	size    map[gx2.ScanTarget][2]int32
	quit    bool
}

// New opens the window and creates the scan-out textures.
func New(cfg Config) (*Display, error) {
	if cfg.DRCScale <= 0 || cfg.DRCScale > 1 {
		cfg.DRCScale = 0.3
	}
	d := &Display{
		Display: host.NewDisplay(),
		config:  cfg,
		tex:     make(map[gx2.ScanTarget]uint32),
		size:    make(map[gx2.ScanTarget][2]int32),
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)

	var err error
	d.sdlWindow, err = sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		sdl.WINDOW_OPENGL|sdl.WINDOW_RESIZABLE,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	d.glContext, err = d.sdlWindow.GLCreateContext()
	if err != nil {
		d.sdlWindow.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	if err := gl.Init(); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		logger.Warn("failed to set swap interval", zap.Error(err))
	}

	gl.GenFramebuffers(1, &d.readFBO)
	for _, target := range []gx2.ScanTarget{gx2.ScanTargetTV, gx2.ScanTargetDRC} {
		var tex uint32
		gl.GenTextures(1, &tex)
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		d.tex[target] = tex
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	logger.Info("scan-out window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("vsync", cfg.VSync),
		zap.String("gl", gl.GoStr(gl.GetString(gl.VERSION))),
	)
	return d, nil
}

// CopyColorBufferToScanBuffer implements gx2.Display.
func (d *Display) CopyColorBufferToScanBuffer(cb *gx2.ColorBuffer, target gx2.ScanTarget) {
	d.Display.CopyColorBufferToScanBuffer(cb, target)
	img := d.ScanBuffer(target)
	tex, ok := d.tex[target]
	if img == nil || !ok {
		return
	}

	w, h := int32(img.Rect.Dx()), int32(img.Rect.Dy())
	gl.BindTexture(gl.TEXTURE_2D, tex)
	if d.size[target] != [2]int32{w, h} {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		d.size[target] = [2]int32{w, h}
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, w, h, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// Present draws both scan buffers and swaps the window.
func (d *Display) Present() {
	ww, wh := d.sdlWindow.GLGetDrawableSize()

	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.Viewport(0, 0, ww, wh)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	d.blit(gx2.ScanTargetTV, 0, 0, ww, wh)

	if size, ok := d.size[gx2.ScanTargetDRC]; ok && size[0] > 0 {
		iw := int32(float32(ww) * d.config.DRCScale)
		ih := iw * size[1] / size[0]
		d.blit(gx2.ScanTargetDRC, ww-iw, 0, ww, ih)
	}

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	d.sdlWindow.GLSwap()
}

// blit copies a scan texture into the window rectangle (x0,y0)-(x1,y1).
// Scan buffers are stored top row first, so the blit flips vertically.
func (d *Display) blit(target gx2.ScanTarget, x0, y0, x1, y1 int32) {
	size, ok := d.size[target]
	if !ok {
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, d.readFBO)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, d.tex[target], 0)
	gl.BlitFramebuffer(0, 0, size[0], size[1], x0, y1, x1, y0, gl.COLOR_BUFFER_BIT, gl.LINEAR)
}

// PollEvents drains the SDL event queue. It returns false once the window
// was closed or Escape was pressed.
func (d *Display) PollEvents() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			d.quit = true
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
				d.quit = true
			}
		}
	}
	return !d.quit
}

// Close destroys the GL objects, the window and shuts SDL down.
func (d *Display) Close() {
	logger.Info("closing scan-out window")

	for target, tex := range d.tex {
		gl.DeleteTextures(1, &tex)
		delete(d.tex, target)
	}
	if d.readFBO != 0 {
		gl.DeleteFramebuffers(1, &d.readFBO)
		d.readFBO = 0
	}
	if d.glContext != nil {
		sdl.GLDeleteContext(d.glContext)
		d.glContext = nil
	}
	if d.sdlWindow != nil {
		d.sdlWindow.Destroy()
		d.sdlWindow = nil
	}
	sdl.Quit()
}
