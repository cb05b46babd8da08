package diagnosis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bryanwahyu/cropscan/internal/application"
	domain "github.com/bryanwahyu/cropscan/internal/domain/diagnosis"
)

// Confidence shaping constants. The values are synthetic and exist only so
// the result page always shows a plausible-looking ranking: the primary
// confidence is drawn from [0.70, 0.95) and every alternative stays at
// least the margin below it, floored at 0.10.
const (
	primaryConfMin = 0.70
	primaryConfMax = 0.95
	altConfMin     = 0.10
	altConfMargin  = 0.20

	maxAlternatives = 2
)

// Service implements the diagnose use-case: persist the upload, run the
// color analyzer, and shape a ranked prediction list.
// Safe for concurrent use; all mutable state is per-call.
type Service struct {
	Analyzer domain.Classifier
	Colors   domain.ColorProfiler // optional, cosmetic swatch only
	Images   domain.ImageStore
	Clock    application.Clock
	Rand     application.Rand

	// Delay simulates inference latency. It blocks only the calling
	// request goroutine, never the server.
	Delay time.Duration

	// Strict surfaces decode failures instead of masking them as a
	// random class.
	Strict bool
}

// UploadCommand describes a validated upload buffered to a local temp file.
type UploadCommand struct {
	TempPath     string
	OriginalName string
	Size         int64
}

// Diagnose stores the upload, then classifies it and builds the result.
func (s *Service) Diagnose(ctx context.Context, cmd UploadCommand) (*domain.Result, error) {
	now := s.Clock.Now()

	storedName, err := domain.StoredName(now, cmd.OriginalName)
	if err != nil {
		return nil, err
	}

	url, err := s.Images.Save(ctx, cmd.TempPath, storedName)
	if err != nil {
		return nil, fmt.Errorf("store upload %s: %w", storedName, err)
	}

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	class, err := s.Analyzer.Classify(ctx, cmd.TempPath)
	if err != nil {
		if s.Strict {
			// compensating cleanup so failed requests don't leave
			// orphaned uploads behind
			if rmErr := s.Images.Remove(ctx, storedName); rmErr != nil {
				log.Printf("cleanup %s after failed analysis: %v", storedName, rmErr)
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrAnalysis, err)
		}
		// demo behavior: always show a result, mask the decode failure
		// as a uniformly random class and keep the error in the logs
		class = domain.ClassID(s.Rand.Intn(domain.ClassCount))
		log.Printf("analysis error masked as class=%d file=%s: %v", class, storedName, err)
	}

	primary := domain.Prediction{
		ClassID:    class,
		Disease:    class.Disease(),
		Confidence: s.uniform(primaryConfMin, primaryConfMax),
	}

	result := &domain.Result{
		Image: domain.StoredImage{
			OriginalName: cmd.OriginalName,
			StoredName:   storedName,
			URL:          url,
			Size:         cmd.Size,
		},
		Primary:      primary,
		Alternatives: s.alternatives(class, primary.Confidence),
		CropType:     domain.CropTypes[s.Rand.Intn(len(domain.CropTypes))],
		AnalyzedAt:   now,
	}

	if s.Colors != nil {
		if hex, err := s.Colors.DominantHex(ctx, cmd.TempPath); err == nil {
			result.DominantHex = hex
		}
	}

	return result, nil
}

// alternatives draws up to maxAlternatives distinct classes, never the
// primary, each with a confidence strictly below primary minus the margin.
func (s *Service) alternatives(primary domain.ClassID, primaryConf float64) []domain.Prediction {
	remaining := make([]domain.ClassID, 0, domain.ClassCount-1)
	for id := domain.ClassID(0); id < domain.ClassCount; id++ {
		if id != primary {
			remaining = append(remaining, id)
		}
	}

	n := maxAlternatives
	if n > len(remaining) {
		n = len(remaining)
	}

	upper := primaryConf - altConfMargin
	alts := make([]domain.Prediction, 0, n)
	for i := 0; i < n; i++ {
		j := s.Rand.Intn(len(remaining))
		id := remaining[j]
		remaining = append(remaining[:j], remaining[j+1:]...)

		conf := altConfMin
		if upper > altConfMin {
			conf = s.uniform(altConfMin, upper)
		}
		alts = append(alts, domain.Prediction{
			ClassID:    id,
			Disease:    id.Disease(),
			Confidence: conf,
		})
	}
	return alts
}

func (s *Service) uniform(lo, hi float64) float64 {
	return lo + s.Rand.Float64()*(hi-lo)
}
