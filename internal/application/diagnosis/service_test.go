package diagnosis_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bryanwahyu/cropscan/internal/application"
	appdiag "github.com/bryanwahyu/cropscan/internal/application/diagnosis"
	domain "github.com/bryanwahyu/cropscan/internal/domain/diagnosis"
)

// seqRand replays fixed sequences so assertions are exact.
type seqRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (r *seqRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.5
	}
	v := r.floats[r.fi%len(r.floats)]
	r.fi++
	return v
}

func (r *seqRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[r.ii%len(r.ints)]
	r.ii++
	return v % n
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type stubClassifier struct {
	id  domain.ClassID
	err error
}

func (s stubClassifier) Classify(ctx context.Context, path string) (domain.ClassID, error) {
	return s.id, s.err
}

type memStore struct {
	saved   map[string]string
	removed []string
	err     error
}

func newMemStore() *memStore {
	return &memStore{saved: map[string]string{}}
}

func (m *memStore) Save(ctx context.Context, localPath, storedName string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved[storedName] = localPath
	return "/uploads/" + storedName, nil
}

func (m *memStore) Remove(ctx context.Context, storedName string) error {
	m.removed = append(m.removed, storedName)
	return nil
}

func newService(classifier domain.Classifier, store domain.ImageStore, rnd application.Rand) *appdiag.Service {
	return &appdiag.Service{
		Analyzer: classifier,
		Images:   store,
		Clock:    fixedClock{t: time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)},
		Rand:     rnd,
	}
}

func TestDiagnoseSuccess(t *testing.T) {
	store := newMemStore()
	rnd := &seqRand{floats: []float64{0.5}, ints: []int{0}}
	svc := newService(stubClassifier{id: domain.ClassHealthy}, store, rnd)

	res, err := svc.Diagnose(context.Background(), appdiag.UploadCommand{
		TempPath:     "/tmp/buffered",
		OriginalName: "leaf.png",
		Size:         42,
	})
	if err != nil {
		t.Fatalf("Diagnose failed: %v", err)
	}

	if res.Primary.ClassID != domain.ClassHealthy || res.Primary.Disease != "Healthy" {
		t.Errorf("primary: got %+v", res.Primary)
	}
	if got, want := res.Primary.Confidence, 0.70+0.5*(0.95-0.70); got != want {
		t.Errorf("primary confidence: got %v, want %v", got, want)
	}
	if res.Image.StoredName != "20240301_150405_leaf.png" {
		t.Errorf("stored name: got %q", res.Image.StoredName)
	}
	if res.Image.URL != "/uploads/20240301_150405_leaf.png" {
		t.Errorf("image url: got %q", res.Image.URL)
	}
	if res.Image.Size != 42 {
		t.Errorf("size: got %d", res.Image.Size)
	}
	if len(store.saved) != 1 {
		t.Errorf("saved files: got %d, want 1", len(store.saved))
	}
	if res.CropType == "" {
		t.Error("crop type must be set")
	}
	if !res.AnalyzedAt.Equal(time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)) {
		t.Errorf("analyzed at: got %v", res.AnalyzedAt)
	}
}

func TestDiagnoseConfidenceInvariants(t *testing.T) {
	// Property check over real randomness: bounds hold on every draw.
	for i := 0; i < 500; i++ {
		store := newMemStore()
		svc := newService(stubClassifier{id: domain.ClassLeafSpot}, store, application.SystemRand{})

		res, err := svc.Diagnose(context.Background(), appdiag.UploadCommand{
			TempPath:     "/tmp/buffered",
			OriginalName: "leaf.jpg",
		})
		if err != nil {
			t.Fatalf("Diagnose failed: %v", err)
		}

		p := res.Primary.Confidence
		if p < 0.70 || p >= 0.95 {
			t.Fatalf("primary confidence out of range: %v", p)
		}
		if len(res.Alternatives) > 2 {
			t.Fatalf("too many alternatives: %d", len(res.Alternatives))
		}
		seen := map[domain.ClassID]bool{res.Primary.ClassID: true}
		for _, alt := range res.Alternatives {
			if alt.Confidence < 0.10 || alt.Confidence >= p-0.20 {
				t.Fatalf("alternative confidence %v outside [0.10, %v)", alt.Confidence, p-0.20)
			}
			if seen[alt.ClassID] {
				t.Fatalf("duplicate class %d in alternatives", alt.ClassID)
			}
			seen[alt.ClassID] = true
		}
	}
}

func TestDiagnoseMasksDecodeError(t *testing.T) {
	store := newMemStore()
	rnd := &seqRand{ints: []int{5}}
	svc := newService(stubClassifier{err: errors.New("decode image: bad magic")}, store, rnd)

	res, err := svc.Diagnose(context.Background(), appdiag.UploadCommand{
		TempPath:     "/tmp/buffered",
		OriginalName: "corrupt.png",
	})
	if err != nil {
		t.Fatalf("masked mode must not fail: %v", err)
	}
	if res.Primary.ClassID != domain.ClassID(5) {
		t.Errorf("masked class: got %d, want 5", res.Primary.ClassID)
	}
	if !res.Primary.ClassID.Valid() {
		t.Errorf("masked class out of range: %d", res.Primary.ClassID)
	}
	if len(store.removed) != 0 {
		t.Error("masked mode must keep the stored upload")
	}
}

func TestDiagnoseStrictSurfacesError(t *testing.T) {
	store := newMemStore()
	svc := newService(stubClassifier{err: errors.New("decode image: bad magic")}, store, &seqRand{})
	svc.Strict = true

	_, err := svc.Diagnose(context.Background(), appdiag.UploadCommand{
		TempPath:     "/tmp/buffered",
		OriginalName: "corrupt.png",
	})
	if !errors.Is(err, domain.ErrAnalysis) {
		t.Fatalf("got %v, want ErrAnalysis", err)
	}
	if len(store.removed) != 1 || !strings.HasSuffix(store.removed[0], "corrupt.png") {
		t.Errorf("stored upload not cleaned up: %v", store.removed)
	}
}

func TestDiagnoseRejectsBadFilename(t *testing.T) {
	store := newMemStore()
	svc := newService(stubClassifier{id: domain.ClassHealthy}, store, &seqRand{})

	_, err := svc.Diagnose(context.Background(), appdiag.UploadCommand{
		TempPath:     "/tmp/buffered",
		OriginalName: "virus.exe",
	})
	if !errors.Is(err, domain.ErrUnsupportedType) {
		t.Fatalf("got %v, want ErrUnsupportedType", err)
	}
	if len(store.saved) != 0 {
		t.Error("nothing may be written for a rejected filename")
	}
}

func TestDiagnoseStoreFailure(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("disk full")
	svc := newService(stubClassifier{id: domain.ClassHealthy}, store, &seqRand{})

	_, err := svc.Diagnose(context.Background(), appdiag.UploadCommand{
		TempPath:     "/tmp/buffered",
		OriginalName: "leaf.png",
	})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("storage error not surfaced: %v", err)
	}
}
