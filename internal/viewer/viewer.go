// Package viewer drives one shader program through a frame loop: it streams
// per-frame uniforms, clears the TV and DRC color buffers and scans them out
// to a window or to host memory.
package viewer

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/gx2res/internal/config"
	"github.com/Faultbox/gx2res/internal/engine/capture"
	"github.com/Faultbox/gx2res/internal/engine/colorbuffer"
	"github.com/Faultbox/gx2res/internal/engine/scanout"
	"github.com/Faultbox/gx2res/internal/engine/shader"
	"github.com/Faultbox/gx2res/internal/gx2"
	"github.com/Faultbox/gx2res/internal/gx2/host"
	"github.com/Faultbox/gx2res/internal/gx2/manifest"
	"github.com/Faultbox/gx2res/internal/logger"
	"github.com/Faultbox/gx2res/pkg/uniform"
)

// Uniform block names the viewer streams each frame.
const (
	BlockMVP   = "MVP"
	BlockColor = "Color"
	BlockTint  = "Tint"
)

// display is what the frame loop scans out to.
type display interface {
	gx2.Display
	capture.Source
}

// window is a display with an event loop.
type window interface {
	display
	Present()
	PollEvents() bool
	Close()
}

// Viewer owns the device, the shader program and both color buffers.
type Viewer struct {
	cfg *config.Config
	log *zap.Logger

	device  *host.Device
	display display
	window  window // nil when headless

	program *shader.Program
	tv      *colorbuffer.ColorBuffer
	drc     *colorbuffer.ColorBuffer
	capture *capture.Capture

	missing map[string]bool
	frame   int
}

// New builds a viewer from cfg. Headless viewers scan out to host memory.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg:     cfg,
		log:     logger.Named("viewer"),
		device:  host.NewDevice(uint64(cfg.Memory.HeapSizeMB) << 20),
		missing: make(map[string]bool),
	}

	if cfg.Display.Headless {
		v.display = host.NewDisplay()
	} else {
		w, err := scanout.New(scanout.Config{
			Title:    "gx2view",
			Width:    cfg.Display.Width,
			Height:   cfg.Display.Height,
			VSync:    cfg.Display.VSync,
			DRCScale: cfg.Display.DRCScale,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open window: %w", err)
		}
		v.display = w
		v.window = w
	}

	if err := v.init(); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

func (v *Viewer) init() error {
	blob, err := manifest.Load(v.cfg.Shader.Manifest)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}
	set, err := blob.Select(v.cfg.Shader.Set)
	if err != nil {
		return err
	}

	v.program, err = shader.New(v.device, set)
	if err != nil {
		return fmt.Errorf("failed to load shader set %q: %w", set.Names()[0], err)
	}
	for _, el := range set.Layout(0) {
		if err := v.program.AddAttribute(el.Name, el.Offset, el.Format, el.Endian); err != nil {
			return err
		}
	}
	if len(v.program.Attributes()) > 0 {
		if err := v.program.InitFetch(); err != nil {
			return err
		}
	}
	if err := v.program.InitUniform(uint32(v.cfg.Shader.UniformBufferSize)); err != nil {
		return err
	}

	v.tv, err = colorbuffer.New(v.device, v.device, v.display, uint32(v.cfg.Display.Width), uint32(v.cfg.Display.Height))
	if err != nil {
		return fmt.Errorf("failed to create TV color buffer: %w", err)
	}
	v.drc, err = colorbuffer.New(v.device, v.device, v.display, uint32(v.cfg.Display.DRCWidth), uint32(v.cfg.Display.DRCHeight))
	if err != nil {
		return fmt.Errorf("failed to create DRC color buffer: %w", err)
	}

	format, err := capture.ParseFormat(v.cfg.Capture.Format)
	if err != nil {
		return err
	}
	v.capture = capture.New(v.cfg.Capture.Dir, "gx2view", v.cfg.Capture.Every)
	v.capture.SetFormat(format)

	v.log.Info("viewer initialized",
		zap.String("set", set.Names()[0]),
		zap.Int("attributes", len(v.program.Attributes())),
		zap.Uint32("uniformBytes", v.program.UniformCapacity()),
		zap.Bool("headless", v.window == nil),
	)
	return nil
}

// Run renders frames until the configured count is reached or the window
// closes. A headless viewer with no frame count renders one frame.
func (v *Viewer) Run() error {
	frames := v.cfg.Run.Frames
	if frames == 0 && v.window == nil {
		frames = 1
	}

	start := time.Now()
	for frames == 0 || v.frame < frames {
		if v.window != nil && !v.window.PollEvents() {
			break
		}
		if err := v.Frame(); err != nil {
			return fmt.Errorf("frame %d: %w", v.frame, err)
		}
		if v.window != nil {
			v.window.Present()
		}
		v.frame++
	}

	allocs, frees := v.device.Stats()
	v.log.Info("frame loop finished",
		zap.Int("frames", v.frame),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("commands", v.device.Commands()),
		zap.Int("allocs", allocs),
		zap.Int("frees", frees),
	)
	return nil
}

// Frame renders and scans out a single frame.
func (v *Viewer) Frame() error {
	t := float32(v.frame) / 60

	v.program.BeginFrame()

	w, h := v.tv.Size()
	mvp := uniform.Ortho(0, float32(w), float32(h), 0, -1, 1).
		Mul(uniform.Translate(float32(w)/2, float32(h)/2, 0)).
		Mul(uniform.RotateZ(t))
	if err := v.update(gx2.StageVertex, BlockMVP, mvp.Bytes()); err != nil {
		return err
	}
	r, g, b := pulse(t)
	if err := v.update(gx2.StageVertex, BlockColor, uniform.Color(r, g, b, 1)); err != nil {
		return err
	}
	if err := v.update(gx2.StagePixel, BlockTint, uniform.Color(1, 1, 1, 1)); err != nil {
		return err
	}

	v.program.Use()

	v.tv.Use()
	v.tv.Clear(r, g, b, 1)
	if err := v.tv.Swap(gx2.ScanTargetTV); err != nil {
		return err
	}

	v.drc.Use()
	v.drc.Clear(b, g, r, 1)
	if err := v.drc.Swap(gx2.ScanTargetDRC); err != nil {
		return err
	}

	if _, err := v.capture.Frame(v.display, v.frame, false); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	return nil
}

// update streams one block. Blocks the shader does not declare are skipped
// and reported once.
func (v *Viewer) update(stage gx2.Stage, name string, data []byte) error {
	var err error
	if stage == gx2.StageVertex {
		err = v.program.UpdateVertexUniform(name, data)
	} else {
		err = v.program.UpdatePixelUniform(name, data)
	}
	if errors.Is(err, shader.ErrUnknownUniformBlock) {
		key := stage.String() + "/" + name
		if !v.missing[key] {
			v.missing[key] = true
			v.log.Info("uniform block not declared, skipping", zap.Stringer("stage", stage), zap.String("block", name))
		}
		return nil
	}
	return err
}

// Frames returns how many frames were rendered.
func (v *Viewer) Frames() int { return v.frame }

// Device returns the device the viewer allocates from.
func (v *Viewer) Device() *host.Device { return v.device }

// Program returns the shader program.
func (v *Viewer) Program() *shader.Program { return v.program }

// ScanBuffer returns the last image copied to target.
func (v *Viewer) ScanBuffer(target gx2.ScanTarget) *image.RGBA {
	return v.display.ScanBuffer(target)
}

// Close releases every GPU resource and closes the window.
func (v *Viewer) Close() {
	if v.drc != nil {
		v.drc.Destroy()
	}
	if v.tv != nil {
		v.tv.Destroy()
	}
	if v.program != nil {
		v.program.Destroy()
	}
	if v.window != nil {
		v.window.Close()
		v.window = nil
	}
	if live := v.device.Live(); live != 0 {
		v.log.Warn("GPU blocks still live after close", zap.Int("live", live))
	}
}

// pulse returns a slowly cycling color.
func pulse(t float32) (r, g, b float32) {
	f := func(phase float64) float32 {
		return float32(0.5 + 0.5*math.Sin(float64(t)+phase))
	}
	return f(0), f(2 * math.Pi / 3), f(4 * math.Pi / 3)
}
