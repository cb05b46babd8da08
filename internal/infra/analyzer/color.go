package analyzer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	domain "github.com/bryanwahyu/cropscan/internal/domain/diagnosis"
)

// Fixed decision thresholds on 8-bit channel means. Not learned, not
// tuned; the whole analyzer is a demo stand-in for a model.
const (
	healthyGreenMin   = 150
	healthyRedMax     = 100
	earlyBlightRedMin = 150
	earlyBlightGrnMax = 100
	lateBlightBlueMax = 50
	lateBlightRedMin  = 180
)

// large uploads are downsampled to this bound before the pixel walk
const maxSampleDim = 256

// fallbackClasses is the pool used when no threshold rule fires.
// Late-stage labels minus the two blights, plus Healthy.
var fallbackClasses = []domain.ClassID{
	domain.ClassHealthy,
	domain.ClassPowderyMildew,
	domain.ClassLeafSpot,
	domain.ClassRust,
	domain.ClassMosaicVirus,
	domain.ClassBacterialSpot,
}

// Rand is the slice of randomness the analyzer needs for its fallback rule.
type Rand interface {
	Intn(n int) int
}

// Color classifies leaf images from their average channel intensities.
type Color struct {
	rand Rand
}

func New(rnd Rand) *Color {
	return &Color{rand: rnd}
}

// Classify decodes the image and maps its mean R/G/B to a class. Decode
// failures are returned to the caller; the failure policy (mask vs.
// surface) lives in the application layer.
func (c *Color) Classify(ctx context.Context, path string) (domain.ClassID, error) {
	img, err := decode(path)
	if err != nil {
		return 0, err
	}

	meanR, meanG, meanB := channelMeans(downsample(img))

	switch {
	case meanG > healthyGreenMin && meanR < healthyRedMax:
		return domain.ClassHealthy, nil
	case meanR > earlyBlightRedMin && meanG < earlyBlightGrnMax:
		return domain.ClassEarlyBlight, nil
	case meanB < lateBlightBlueMax && meanR > lateBlightRedMin:
		return domain.ClassLateBlight, nil
	}

	return fallbackClasses[c.rand.Intn(len(fallbackClasses))], nil
}

// DominantHex extracts the dominant color of the image as a #rrggbb string
// via k-means clustering. Display-only; callers treat errors as "no swatch".
func (c *Color) DominantHex(ctx context.Context, path string) (string, error) {
	img, err := decode(path)
	if err != nil {
		return "", err
	}

	colors, err := prominentcolor.KmeansWithArgs(prominentcolor.ArgumentNoCropping, img)
	if err != nil {
		return "", fmt.Errorf("dominant color: %w", err)
	}
	if len(colors) == 0 {
		return "", fmt.Errorf("dominant color: no clusters found")
	}

	dom := colors[0].Color
	return fmt.Sprintf("#%02x%02x%02x", dom.R, dom.G, dom.B), nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func downsample(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxSampleDim && b.Dy() <= maxSampleDim {
		return img
	}
	return resize.Thumbnail(maxSampleDim, maxSampleDim, img, resize.Lanczos3)
}

// channelMeans walks every pixel and averages the 8-bit R, G and B values.
func channelMeans(img image.Image) (float64, float64, float64) {
	bounds := img.Bounds()
	var rSum, gSum, bSum uint64
	var total uint64

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			rSum += uint64(c.R)
			gSum += uint64(c.G)
			bSum += uint64(c.B)
			total++
		}
	}
	if total == 0 {
		return 0, 0, 0
	}

	return float64(rSum) / float64(total),
		float64(gSum) / float64(total),
		float64(bSum) / float64(total)
}
