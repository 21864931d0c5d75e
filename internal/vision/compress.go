// Package vision prepares photo payloads for vision-capable model tiers.
// Input images are capped in count, resized, and re-encoded at decreasing
// JPEG quality until each fits the configured byte budget. The compression
// loop always terminates: at the byte budget, or at the documented quality
// and resolution floors, whichever comes first.
package vision

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png" // Register PNG decoding for homeowner uploads.

	"github.com/renoquote/renoquote/internal/llm/configuration"
	"github.com/renoquote/renoquote/internal/llm/transport"
)

const (
	// minDimension is the resolution floor: the longest side is never
	// reduced below this, regardless of byte budget.
	minDimension = 320

	// dimensionStepFactor shrinks the longest side per iteration once the
	// quality floor has been reached.
	dimensionStepFactor = 0.75

	jpegMimeType = "image/jpeg"
)

// PrepareAttachments selects and compresses at most cfg.MaxImages of the
// most recent images, returning them as inline attachments. Images that are
// over the cap are dropped silently; images that cannot be decoded are
// skipped. An empty input skips all work.
func PrepareAttachments(images [][]byte, cfg configuration.VisionConfig) []transport.Attachment {
	if len(images) == 0 || cfg.MaxImages <= 0 {
		return nil
	}

	// Most recent images are at the tail of the list.
	selected := images
	if len(selected) > cfg.MaxImages {
		selected = selected[len(selected)-cfg.MaxImages:]
	}

	attachments := make([]transport.Attachment, 0, len(selected))
	for _, raw := range selected {
		compressed, err := Compress(raw, cfg)
		if err != nil {
			continue
		}
		attachments = append(attachments, transport.Attachment{
			MimeType: jpegMimeType,
			Data:     compressed,
		})
	}
	return attachments
}

// Compress re-encodes a single image under the configured byte budget.
// The loop first caps the longest dimension, then steps JPEG quality down
// to the floor, then steps resolution down to the floor. The smallest
// encoding produced is returned even if it exceeds the budget, so callers
// never lose a usable image to an oversized original.
func Compress(raw []byte, cfg configuration.VisionConfig) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	if longest(img) > cfg.MaxDimension && cfg.MaxDimension > 0 {
		img = scaleToFit(img, cfg.MaxDimension)
	}

	quality := cfg.InitialQuality
	if quality <= 0 || quality > 100 {
		quality = configuration.DefaultInitialQuality
	}
	floor := cfg.QualityFloor
	if floor <= 0 {
		floor = configuration.DefaultQualityFloor
	}
	step := cfg.QualityStep
	if step <= 0 {
		step = configuration.DefaultQualityStep
	}

	var best []byte
	for {
		encoded, err := encodeJPEG(img, quality)
		if err != nil {
			return nil, err
		}
		if best == nil || len(encoded) < len(best) {
			best = encoded
		}
		if cfg.TargetBytes <= 0 || len(encoded) <= cfg.TargetBytes {
			return encoded, nil
		}

		if quality-step >= floor {
			quality -= step
			continue
		}

		// Quality floor reached: trade resolution next.
		next := int(float64(longest(img)) * dimensionStepFactor)
		if next < minDimension {
			return best, nil
		}
		img = scaleToFit(img, next)
	}
}

// longest returns the longer side of the image in pixels.
func longest(img image.Image) int {
	b := img.Bounds()
	if b.Dx() > b.Dy() {
		return b.Dx()
	}
	return b.Dy()
}

// scaleToFit resizes so the longest side equals max, preserving aspect
// ratio, using bilinear sampling over the source pixels.
func scaleToFit(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var nw, nh int
	if w >= h {
		nw = max
		nh = h * max / w
	} else {
		nh = max
		nw = w * max / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xRatio := float64(w) / float64(nw)
	yRatio := float64(h) / float64(nh)

	for y := 0; y < nh; y++ {
		srcY := float64(y) * yRatio
		y0 := int(srcY)
		y1 := y0 + 1
		if y1 >= h {
			y1 = h - 1
		}
		fy := srcY - float64(y0)

		for x := 0; x < nw; x++ {
			srcX := float64(x) * xRatio
			x0 := int(srcX)
			x1 := x0 + 1
			if x1 >= w {
				x1 = w - 1
			}
			fx := srcX - float64(x0)

			r00, g00, b00, a00 := img.At(b.Min.X+x0, b.Min.Y+y0).RGBA()
			r10, g10, b10, a10 := img.At(b.Min.X+x1, b.Min.Y+y0).RGBA()
			r01, g01, b01, a01 := img.At(b.Min.X+x0, b.Min.Y+y1).RGBA()
			r11, g11, b11, a11 := img.At(b.Min.X+x1, b.Min.Y+y1).RGBA()

			lerp := func(c00, c10, c01, c11 uint32) uint8 {
				top := float64(c00)*(1-fx) + float64(c10)*fx
				bot := float64(c01)*(1-fx) + float64(c11)*fx
				return uint8((top*(1-fy) + bot*fy) / 257)
			}

			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = lerp(r00, r10, r01, r11)
			dst.Pix[i+1] = lerp(g00, g10, g01, g11)
			dst.Pix[i+2] = lerp(b00, b10, b01, b11)
			dst.Pix[i+3] = lerp(a00, a10, a01, a11)
		}
	}
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
