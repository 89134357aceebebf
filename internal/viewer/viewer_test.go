package viewer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/gx2res/internal/config"
	"github.com/Faultbox/gx2res/internal/engine/arena"
	"github.com/Faultbox/gx2res/internal/gx2"
	"github.com/Faultbox/gx2res/internal/gx2/host"
	"github.com/Faultbox/gx2res/internal/logger"
)

const testManifest = `
sets:
  - name: tri
    vertex:
      program_size: 512
      attribs:
        - {name: pos, location: 0}
        - {name: color, location: 1}
      uniform_blocks:
        - {name: MVP, offset: 0, size: 64}
        - {name: Color, offset: 1, size: 16}
    pixel:
      program_hex: "0102030405060708"
      program_size: 256
      uniform_blocks:
        - {name: Tint, offset: 0, size: 16}
    layout:
      - {name: pos, offset: 0, format: float32x3}
      - {name: color, offset: 12, format: unorm8x4, endian: none}
  - name: bare
    vertex:
      program_size: 256
      uniform_blocks:
        - {name: MVP, offset: 0, size: 64}
    pixel:
      program_size: 256
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "shaders.yaml")
	if err := os.WriteFile(path, []byte(testManifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	cfg := config.Default()
	cfg.Display.Headless = true
	cfg.Display.Width, cfg.Display.Height = 64, 32
	cfg.Display.DRCWidth, cfg.Display.DRCHeight = 32, 16
	cfg.Shader.Manifest = path
	cfg.Memory.HeapSizeMB = 1
	cfg.Capture.Dir = filepath.Join(dir, "captures")
	return cfg
}

func near(a, b byte) bool {
	d := int(a) - int(b)
	return d >= -1 && d <= 1
}

func TestRunHeadless(t *testing.T) {
	cfg := testConfig(t)
	cfg.Run.Frames = 3
	cfg.Capture.Every = 2

	v, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := v.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if v.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", v.Frames())
	}
	if len(v.Program().Attributes()) != 2 {
		t.Errorf("expected 2 attributes from layout, got %d", len(v.Program().Attributes()))
	}
	if v.Program().FetchShader() == nil {
		t.Error("expected fetch shader to be built")
	}

	state := v.Device().State()
	if state.Fetch != v.Program().FetchShader() {
		t.Error("fetch shader not bound")
	}
	if b, ok := state.VertexUniforms[1]; !ok || b.Size != 16 || b.Offset != 256 {
		t.Errorf("unexpected Color binding %+v", b)
	}
	if b, ok := state.PixelUniforms[0]; !ok || b.Offset != 512 {
		t.Errorf("unexpected Tint binding %+v", b)
	}

	// Last frame is frame 2; TV is cleared to the pulse color, DRC to its swap.
	r, g, b := pulse(2.0 / 60)
	tv := v.ScanBuffer(gx2.ScanTargetTV)
	if tv == nil || tv.Rect.Dx() != 64 || tv.Rect.Dy() != 32 {
		t.Fatalf("unexpected TV scan buffer %v", tv)
	}
	px := tv.RGBAAt(63, 31)
	if !near(px.R, byte(r*255+0.5)) || !near(px.G, byte(g*255+0.5)) || !near(px.B, byte(b*255+0.5)) || px.A != 255 {
		t.Errorf("unexpected TV pixel %v", px)
	}
	drc := v.ScanBuffer(gx2.ScanTargetDRC)
	if drc == nil || drc.Rect.Dx() != 32 {
		t.Fatalf("unexpected DRC scan buffer %v", drc)
	}
	if dpx := drc.RGBAAt(0, 0); !near(dpx.R, px.B) || !near(dpx.B, px.R) {
		t.Errorf("DRC pixel %v should swap TV channels %v", dpx, px)
	}

	for _, frame := range []string{"000000", "000002"} {
		for _, target := range []string{"tv", "drc"} {
			name := filepath.Join(cfg.Capture.Dir, "gx2view_"+target+"_"+frame+".png")
			if _, err := os.Stat(name); err != nil {
				t.Errorf("expected capture %s: %v", name, err)
			}
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Capture.Dir, "gx2view_tv_000001.png")); err == nil {
		t.Error("frame 1 should not be captured")
	}

	v.Close()
	if live := v.Device().Live(); live != 0 {
		t.Errorf("expected no live blocks after Close, got %d", live)
	}
}

func TestHeadlessDefaultsToOneFrame(t *testing.T) {
	cfg := testConfig(t)
	cfg.Capture.Every = 1
	cfg.Capture.Format = "bmp"

	v, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if v.Frames() != 1 {
		t.Errorf("expected 1 frame, got %d", v.Frames())
	}
	if _, err := os.Stat(filepath.Join(cfg.Capture.Dir, "gx2view_tv_000000.bmp")); err != nil {
		t.Errorf("expected BMP capture: %v", err)
	}
}

func TestSelectBareSet(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shader.Set = "bare"

	v, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer v.Close()

	// Color and Tint are not declared by this set and are skipped.
	if err := v.Frame(); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if v.Program().FetchShader() != nil {
		t.Error("bare set has no layout and should have no fetch shader")
	}
	if v.Program().Offset() != 256 {
		t.Errorf("expected only MVP streamed, cursor at %d", v.Program().Offset())
	}
	if !v.missing["vertex/Color"] || !v.missing["pixel/Tint"] {
		t.Errorf("expected skipped blocks to be recorded, got %v", v.missing)
	}
}

func TestUniformExhaustion(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shader.UniformBufferSize = 512

	v, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer v.Close()

	err = v.Frame()
	if !errors.Is(err, arena.ErrBufferExhausted) {
		t.Fatalf("expected ErrBufferExhausted, got %v", err)
	}
	if v.Program().Offset() != 512 {
		t.Errorf("cursor should stay at 512, got %d", v.Program().Offset())
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing manifest", func(c *config.Config) { c.Shader.Manifest = "/nonexistent/shaders.yaml" }},
		{"unknown set", func(c *config.Config) { c.Shader.Set = "quad" }},
		{"heap too small", func(c *config.Config) { c.Display.Width, c.Display.Height = 1024, 1024 }},
		{"bad capture format", func(c *config.Config) { c.Capture.Format = "gif" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			if _, err := New(cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCloseReleasesOnFailedInit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Display.DRCWidth, cfg.Display.DRCHeight = 1024, 1024

	v := &Viewer{
		cfg:     cfg,
		log:     logger.Named("viewer"),
		device:  host.NewDevice(1 << 20),
		display: host.NewDisplay(),
		missing: make(map[string]bool),
	}
	if err := v.init(); err == nil {
		t.Fatal("expected DRC color buffer to fail")
	}
	v.Close()
	if live := v.device.Live(); live != 0 {
		t.Errorf("expected no live blocks, got %d", live)
	}
}
