package diagnosis_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bryanwahyu/cropscan/internal/domain/diagnosis"
)

func TestAllowedFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"leaf.png", true},
		{"leaf.jpg", true},
		{"leaf.jpeg", true},
		{"leaf.gif", true},
		{"leaf.bmp", true},
		{"LEAF.PNG", true},
		{"leaf.Jpg", true},
		{"leaf.exe", false},
		{"leaf.png.exe", false},
		{"leaf", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := diagnosis.AllowedFile(tt.name); got != tt.want {
			t.Errorf("AllowedFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"leaf.png", "leaf.png"},
		{"my leaf photo.png", "my_leaf_photo.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\leaf.png`, "leaf.png"},
		{"le@af!#.png", "leaf.png"},
	}

	for _, tt := range tests {
		if got := diagnosis.SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStoredName(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)

	name, err := diagnosis.StoredName(now, "my leaf.PNG")
	if err != nil {
		t.Fatalf("StoredName failed: %v", err)
	}
	if name != "20240301_150405_my_leaf.PNG" {
		t.Errorf("stored name: got %q", name)
	}
	if !strings.HasPrefix(name, "20240301_150405_") {
		t.Errorf("missing timestamp prefix: %q", name)
	}
}

func TestStoredNameRejections(t *testing.T) {
	now := time.Now()

	tests := []struct {
		original string
		wantErr  error
	}{
		{"", diagnosis.ErrEmptyFilename},
		{"   ", diagnosis.ErrEmptyFilename},
		{"virus.exe", diagnosis.ErrUnsupportedType},
		{"noextension", diagnosis.ErrUnsupportedType},
		{"@@@.png", diagnosis.ErrInvalidFilename},
	}

	for _, tt := range tests {
		if _, err := diagnosis.StoredName(now, tt.original); !errors.Is(err, tt.wantErr) {
			t.Errorf("StoredName(%q): got %v, want %v", tt.original, err, tt.wantErr)
		}
	}
}

func TestStoredNameUniquePerTimestamp(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)
	t2 := t1.Add(time.Second)

	a, err := diagnosis.StoredName(t1, "leaf.png")
	if err != nil {
		t.Fatal(err)
	}
	b, err := diagnosis.StoredName(t2, "leaf.png")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("same name for different timestamps: %q", a)
	}
}

func TestDiseaseNames(t *testing.T) {
	seen := map[string]bool{}
	for id := diagnosis.ClassID(0); id < diagnosis.ClassCount; id++ {
		name := id.Disease()
		if name == "" || name == "Unknown" {
			t.Errorf("class %d has no label", id)
		}
		if seen[name] {
			t.Errorf("duplicate label %q", name)
		}
		seen[name] = true
	}
	if diagnosis.ClassID(-1).Disease() != "Unknown" || diagnosis.ClassID(8).Disease() != "Unknown" {
		t.Error("out-of-range ids should map to Unknown")
	}
}
