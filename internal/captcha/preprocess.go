package captcha

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	// contrast percentage for imaging.AdjustContrast, 50 stretches the
	// distance from mid-gray by a factor of 2
	contrastPercentage = 50
	sharpenSigma       = 1.0
	binaryThreshold    = 128
	upscaleFactor      = 2
)

type Branch int

const (
	// BranchProcessed means Image holds the re-encoded, binarized PNG.
	BranchProcessed Branch = iota
	// BranchPassthrough means preprocessing failed and Image holds the
	// original bytes unmodified.
	BranchPassthrough
)

func (b Branch) String() string {
	switch b {
	case BranchProcessed:
		return "processed"
	case BranchPassthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("Branch(%d)", int(b))
	}
}

type Preprocessed struct {
	Image  []byte
	Branch Branch
	// Err is the reason the passthrough branch was taken.
	Err error
}

// Preprocess converts a challenge image into a high-contrast, binarized,
// upscaled PNG. It never fails: when any step fails the original bytes are
// passed through.
func Preprocess(raw []byte) (result Preprocessed) {
	defer func() {
		// decoders of some formats panic on truncated input
		if r := recover(); r != nil {
			result = passthrough(raw, fmt.Errorf("preprocess panicked: %v", r))
		}
	}()

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return passthrough(raw, fmt.Errorf("decode: %w", err))
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return passthrough(raw, fmt.Errorf("empty image"))
	}

	gray := imaging.Grayscale(img)
	contrasted := imaging.AdjustContrast(gray, contrastPercentage)
	sharpened := imaging.Sharpen(contrasted, sharpenSigma)
	binary := imaging.AdjustFunc(sharpened, func(c color.NRGBA) color.NRGBA {
		// grayscale input, so any channel is the luminance
		if c.R < binaryThreshold {
			return color.NRGBA{R: 0, G: 0, B: 0, A: 255}
		}
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	})
	upscaled := imaging.Resize(
		binary,
		bounds.Dx()*upscaleFactor,
		bounds.Dy()*upscaleFactor,
		imaging.Lanczos,
	)

	var out bytes.Buffer
	err = imaging.Encode(&out, upscaled, imaging.PNG)
	if err != nil {
		return passthrough(raw, fmt.Errorf("encode: %w", err))
	}

	return Preprocessed{Image: out.Bytes(), Branch: BranchProcessed}
}

func passthrough(raw []byte, err error) Preprocessed {
	return Preprocessed{Image: raw, Branch: BranchPassthrough, Err: err}
}
