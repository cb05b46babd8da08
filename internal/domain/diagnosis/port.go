package diagnosis

import "context"

// Classifier port (interface for image analysis). Classify returns the
// predicted class or a decode error; the caller decides the failure policy.
type Classifier interface {
	Classify(ctx context.Context, path string) (ClassID, error)
}

// ColorProfiler port (interface for cosmetic color extraction)
type ColorProfiler interface {
	DominantHex(ctx context.Context, path string) (string, error)
}

// ImageStore port (interface for upload persistence). Save copies the
// buffered upload at localPath into the store under storedName and returns
// a URL the browser can fetch the image from.
type ImageStore interface {
	Save(ctx context.Context, localPath, storedName string) (string, error)
	Remove(ctx context.Context, storedName string) error
}
