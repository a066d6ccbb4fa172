package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	body := strings.NewReader("data")
	cases := []struct {
		name   string
		upload Upload
		max    int64
		want   error
	}{
		{"image accepted", Upload{Reader: body, Size: 4, ContentType: "image/png"}, 10, nil},
		{"mixed case accepted", Upload{Reader: body, Size: 4, ContentType: " Image/JPEG"}, 10, nil},
		{"pdf rejected", Upload{Reader: body, Size: 4, ContentType: "application/pdf"}, 10, ErrNotImage},
		{"missing type rejected", Upload{Reader: body, Size: 4}, 10, ErrNotImage},
		{"too large", Upload{Reader: body, Size: 11, ContentType: "image/png"}, 10, ErrTooLarge},
		{"empty", Upload{Size: 0, ContentType: "image/png"}, 10, ErrEmpty},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(tc.upload, tc.max); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestProcessSmallImagePassesThrough(t *testing.T) {
	data := pngBytes(t, 16, 8)
	p := NewFFMPEGProcessor("/nonexistent/ffmpeg", 64)
	result, err := p.Process(context.Background(), Upload{Reader: bytes.NewReader(data), Size: int64(len(data)), ContentType: "image/png"}, 0)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.Resized || !bytes.Equal(result.Bytes, data) {
		t.Fatalf("expected original bytes to be returned unchanged")
	}
	if result.ContentType != "image/png" {
		t.Fatalf("unexpected content type %q", result.ContentType)
	}
}

func TestProcessRejectsUndecodableData(t *testing.T) {
	p := NewFFMPEGProcessor("", 0)
	_, err := p.Process(context.Background(), Upload{Reader: strings.NewReader("not an image"), Size: 12, ContentType: "application/octet-stream"}, 0)
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
}

func TestProcessKeepsImagesWithoutDecoder(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"/>`)
	p := NewFFMPEGProcessor("/nonexistent/ffmpeg", 64)
	result, err := p.Process(context.Background(), Upload{Reader: bytes.NewReader(svg), Size: int64(len(svg)), ContentType: "image/svg+xml"}, 0)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.Resized || !bytes.Equal(result.Bytes, svg) || result.ContentType != "image/svg+xml" {
		t.Fatalf("expected svg to be stored unchanged, got %+v", result)
	}
}

func TestProcessDecodesBMPAndTIFF(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	var bmpBuf, tiffBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, img); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	if err := tiff.Encode(&tiffBuf, img, nil); err != nil {
		t.Fatalf("encode tiff: %v", err)
	}
	for contentType, data := range map[string][]byte{"image/bmp": bmpBuf.Bytes(), "image/tiff": tiffBuf.Bytes()} {
		w, h, err := decodeDimensions(bytes.NewReader(data))
		if err != nil || w != 200 || h != 100 {
			t.Fatalf("%s: expected 200x100, got %dx%d (%v)", contentType, w, h, err)
		}
		// Oversized but not transcodable: kept as sent.
		p := NewFFMPEGProcessor("/nonexistent/ffmpeg", 50)
		result, err := p.Process(context.Background(), Upload{Reader: bytes.NewReader(data), Size: int64(len(data)), ContentType: contentType}, 0)
		if err != nil || !bytes.Equal(result.Bytes, data) {
			t.Fatalf("%s: expected passthrough, got err=%v", contentType, err)
		}
	}
}

func TestScaleToFit(t *testing.T) {
	w, h := scaleToFit(4000, 2000, 1024)
	if w != 1024 || h != 512 {
		t.Fatalf("expected 1024x512, got %dx%d", w, h)
	}
	w, h = scaleToFit(10, 4000, 1024)
	if h != 1024 || w != 3 {
		t.Fatalf("expected 3x1024, got %dx%d", w, h)
	}
}

func TestExtension(t *testing.T) {
	cases := map[string]Upload{
		".jpg":  {ContentType: "image/jpg"},
		".png":  {ContentType: "image/png"},
		".webp": {FileName: "avatar.WEBP"},
		".bmp":  {ContentType: "image/bmp", FileName: "a.bmp"},
	}
	for want, upload := range cases {
		if got := Extension(upload); got != want {
			t.Fatalf("Extension(%+v) = %q, want %q", upload, got, want)
		}
	}
}
