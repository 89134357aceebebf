package capture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/gx2res/internal/gx2"
)

type fakeSource map[gx2.ScanTarget]*image.RGBA

func (s fakeSource) ScanBuffer(target gx2.ScanTarget) *image.RGBA { return s[target] }

func TestFilename(t *testing.T) {
	c := New("/tmp/out", "gx2view", 10)
	got := c.Filename(gx2.ScanTargetDRC, 42)
	want := filepath.Join("/tmp/out", "gx2view_drc_000042.png")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestDue(t *testing.T) {
	c := New("", "x", 30)
	if !c.Due(0) || !c.Due(60) || c.Due(31) {
		t.Error("unexpected Due results for every=30")
	}
	if New("", "x", 0).Due(0) {
		t.Error("every=0 should never be due")
	}
}

func TestFrame(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, "cap", 2)

	tv := image.NewRGBA(image.Rect(0, 0, 4, 2))
	tv.SetRGBA(3, 1, color.RGBA{1, 2, 3, 255})
	src := fakeSource{gx2.ScanTargetTV: tv}

	files, err := c.Frame(src, 1, false)
	if err != nil || files != nil {
		t.Fatalf("frame 1 should not be captured: %v %v", files, err)
	}

	files, err = c.Frame(src, 2, false)
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected only the TV file, got %v", files)
	}

	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open capture: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode capture: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
	if r, g, b, _ := img.At(3, 1).RGBA(); r>>8 != 1 || g>>8 != 2 || b>>8 != 3 {
		t.Errorf("unexpected pixel %v", img.At(3, 1))
	}

	forced, err := c.Frame(src, 3, true)
	if err != nil || len(forced) != 1 {
		t.Errorf("forced capture failed: %v %v", forced, err)
	}
}

func TestFrameBMP(t *testing.T) {
	c := New(t.TempDir(), "cap", 1)
	c.SetFormat(FormatBMP)

	drc := image.NewRGBA(image.Rect(0, 0, 3, 3))
	drc.SetRGBA(1, 2, color.RGBA{200, 100, 50, 255})

	files, err := c.Frame(fakeSource{gx2.ScanTargetDRC: drc}, 7, false)
	if err != nil || len(files) != 1 {
		t.Fatalf("Frame failed: %v %v", files, err)
	}
	if filepath.Ext(files[0]) != ".bmp" {
		t.Errorf("expected .bmp file, got %s", files[0])
	}

	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open capture: %v", err)
	}
	defer f.Close()
	img, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("decode capture: %v", err)
	}
	if r, g, b, _ := img.At(1, 2).RGBA(); r>>8 != 200 || g>>8 != 100 || b>>8 != 50 {
		t.Errorf("unexpected pixel %v", img.At(1, 2))
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPNG, "png": FormatPNG, "bmp": FormatBMP} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("jpeg"); err == nil {
		t.Error("expected error for jpeg")
	}
}
