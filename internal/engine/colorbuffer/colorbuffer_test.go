package colorbuffer

import (
	"errors"
	"image/color"
	"testing"

	"github.com/Faultbox/gx2res/internal/gx2"
	"github.com/Faultbox/gx2res/internal/gx2/host"
)

func newTestBuffer(t *testing.T, w, h uint32) (*ColorBuffer, *host.Device, *host.Display) {
	t.Helper()
	dev := host.NewDevice(16 << 20)
	disp := host.NewDisplay()
	cb, err := New(dev, dev, disp, w, h)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return cb, dev, disp
}

func TestNew(t *testing.T) {
	cb, dev, _ := newTestBuffer(t, 1280, 720)

	w, h := cb.Size()
	if w != 1280 || h != 720 {
		t.Errorf("expected 1280x720, got %dx%d", w, h)
	}
	s := cb.Buffer().Surface
	if s.Image == nil || !dev.Owns(s.Image) {
		t.Fatal("surface image not allocated from the device heap")
	}
	if s.Image.Addr%s.Alignment != 0 {
		t.Errorf("image address %#x not aligned to %d", s.Image.Addr, s.Alignment)
	}
	if s.MipLevels != 1 || s.AA != gx2.AAMode1X || s.Tile != gx2.TileModeLinearAligned {
		t.Errorf("unexpected surface layout %+v", s)
	}
	if cb.Buffer().Regs[3] != s.Image.Addr>>8 {
		t.Error("color buffer registers not initialized")
	}
	want := gx2.BindColorBuffer | gx2.UsageGPURead | gx2.UsageGPUWrite
	if cb.ResourceFlags() != want {
		t.Errorf("expected resource flags %#x, got %#x", want, cb.ResourceFlags())
	}
	if n := dev.InvalidateCount(gx2.InvalidateCPU | gx2.InvalidateColorBuffer); n != 1 {
		t.Errorf("expected one color buffer invalidation at creation, got %d", n)
	}
	if s.Image.Size() != s.ImageSize {
		t.Errorf("image block of %d bytes, surface needs %d", s.Image.Size(), s.ImageSize)
	}
}

func TestNewInvalid(t *testing.T) {
	dev := host.NewDevice(1 << 20)
	disp := host.NewDisplay()

	if _, err := New(dev, dev, disp, 0, 720); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
	// The image would be 4 GiB + 256 KiB, which wraps to 256 KiB in 32 bits
	// and fits the heap.
	_, err := New(dev, dev, disp, 65536, 16385)
	if !errors.Is(err, ErrInvalidSize) || !errors.Is(err, gx2.ErrSurfaceTooLarge) {
		t.Errorf("expected ErrInvalidSize for a 4 GiB surface, got %v", err)
	}
	if _, err := New(dev, dev, disp, 4096, 4096); !errors.Is(err, gx2.ErrAllocationFailure) {
		t.Errorf("expected ErrAllocationFailure, got %v", err)
	}
	if dev.Live() != 0 {
		t.Errorf("expected no live allocations, got %d", dev.Live())
	}
}

func TestUseAndSwap(t *testing.T) {
	cb, _, disp := newTestBuffer(t, 64, 32)

	cb.Use()
	if disp.Bound(gx2.RenderTarget0) != cb.Buffer() {
		t.Error("color buffer not bound to render target 0")
	}

	cb.Clear(0, 0, 1, 1)
	if err := cb.Swap(gx2.ScanTargetTV); err != nil {
		t.Fatalf("Swap TV failed: %v", err)
	}
	cb.Clear(1, 0, 0, 1)
	if err := cb.Swap(gx2.ScanTargetDRC); err != nil {
		t.Fatalf("Swap DRC failed: %v", err)
	}

	if got := disp.Pixel(gx2.ScanTargetTV, 10, 10); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("unexpected TV pixel %v", got)
	}
	if got := disp.Pixel(gx2.ScanTargetDRC, 10, 10); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("unexpected DRC pixel %v", got)
	}
}

func TestSwapUnknownTarget(t *testing.T) {
	cb, _, disp := newTestBuffer(t, 64, 32)

	err := cb.Swap(gx2.ScanTarget(0))
	if !errors.Is(err, ErrUnknownScanTarget) {
		t.Fatalf("expected ErrUnknownScanTarget, got %v", err)
	}
	if disp.Copies(gx2.ScanTargetTV)+disp.Copies(gx2.ScanTargetDRC) != 0 {
		t.Error("unknown target triggered a copy")
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	cb, dev, disp := newTestBuffer(t, 64, 32)

	cb.Destroy()
	cb.Destroy()

	if dev.Live() != 0 {
		t.Errorf("expected no live allocations, got %d", dev.Live())
	}
	if _, frees := dev.Stats(); frees != 1 {
		t.Errorf("expected 1 free, got %d", frees)
	}
	if cb.Buffer().Surface.Image != nil {
		t.Error("image pointer not cleared")
	}

	cb.Use()
	if disp.Bound(gx2.RenderTarget0) != nil {
		t.Error("destroyed color buffer was bound")
	}
	if err := cb.Swap(gx2.ScanTargetTV); err == nil {
		t.Error("expected error swapping a destroyed color buffer")
	}
}
