package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func testJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{120, 90, 40, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func testPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestNormalizeAlwaysJPEG(t *testing.T) {
	for name, data := range map[string][]byte{"jpeg": testJPEG(64, 48), "png": testPNG(64, 48)} {
		p, err := Normalize(data)
		if err != nil {
			t.Fatalf("Normalize %s: %v", name, err)
		}
		if p.MIME != "image/jpeg" {
			t.Errorf("%s: expected image/jpeg, got %s", name, p.MIME)
		}
		if len(p.Data) == 0 {
			t.Errorf("%s: expected data", name)
		}
	}
}

func TestNormalizeDownscalesKeepingAspect(t *testing.T) {
	p, err := Normalize(testJPEG(2048, 1024))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(p.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if cfg.Width != MaxDimension || cfg.Height != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, cfg.Width, cfg.Height)
	}
}

func TestNormalizeSmallNotUpscaled(t *testing.T) {
	p, err := Normalize(testJPEG(30, 20))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(p.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if cfg.Width != 30 || cfg.Height != 20 {
		t.Errorf("expected 30x20, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestNormalizeRejectsOtherFormats(t *testing.T) {
	if _, err := Normalize([]byte("GIF89a not really")); err == nil {
		t.Error("expected error for GIF data")
	}
	if _, err := Normalize([]byte("hello")); err == nil {
		t.Error("expected error for text")
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	data := testJPEG(10, 10)
	uri := EncodeDataURI(&Photo{Data: data, MIME: "image/jpeg"})
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected prefix: %.40s", uri)
	}
	p, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI: %v", err)
	}
	if p.MIME != "image/jpeg" || !bytes.Equal(p.Data, data) {
		t.Error("data URI did not round-trip")
	}
}

func TestDecodeDataURIInvalid(t *testing.T) {
	tests := []string{
		"",
		"image/jpeg;base64,AAAA",
		"data:image/jpeg;base64",
		"data:image/jpeg,plain",
		"data:image/jpeg;base64,!!!",
	}
	for _, uri := range tests {
		if _, err := DecodeDataURI(uri); !errors.Is(err, ErrInvalidDataURI) {
			t.Errorf("DecodeDataURI(%q) = %v, want ErrInvalidDataURI", uri, err)
		}
	}
}

func TestNormalizeDataURI(t *testing.T) {
	in := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG(1500, 300))
	out, err := NormalizeDataURI(in)
	if err != nil {
		t.Fatalf("NormalizeDataURI: %v", err)
	}
	p, err := DecodeDataURI(out)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(p.Data))
	if err != nil {
		t.Fatalf("decoding image: %v", err)
	}
	if p.MIME != "image/jpeg" || cfg.Width != MaxDimension {
		t.Errorf("expected JPEG %d wide, got %s %d", MaxDimension, p.MIME, cfg.Width)
	}
}
