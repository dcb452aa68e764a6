// Package imaging normalises furniture photos sent from the field as data URIs.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
)

// MaxDimension is the maximum width or height for stored photos.
const MaxDimension = 1024

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ErrInvalidDataURI is returned for photos that are not base64 data URIs.
var ErrInvalidDataURI = errors.New("invalid data URI")

// Photo is a decoded photo.
type Photo struct {
	Data []byte
	MIME string
}

// Normalize validates the bytes by sniffing, downscales anything larger than
// MaxDimension and re-encodes the result as JPEG.
func Normalize(data []byte) (*Photo, error) {
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &Photo{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}

// DecodeDataURI splits a "data:<mime>;base64,<payload>" URI.
func DecodeDataURI(uri string) (*Photo, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalidDataURI
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, fmt.Errorf("%w: payload is not base64", ErrInvalidDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return &Photo{Data: data, MIME: mime}, nil
}

// EncodeDataURI renders a photo as a base64 data URI.
func EncodeDataURI(p *Photo) string {
	return "data:" + p.MIME + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// NormalizeDataURI decodes a data URI, normalises the photo and returns it
// as a JPEG data URI.
func NormalizeDataURI(uri string) (string, error) {
	p, err := DecodeDataURI(uri)
	if err != nil {
		return "", err
	}
	out, err := Normalize(p.Data)
	if err != nil {
		return "", err
	}
	return EncodeDataURI(out), nil
}

// downscale resizes img so neither dimension exceeds maxDim, keeping the
// aspect ratio. Images already within bounds are returned unchanged.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
