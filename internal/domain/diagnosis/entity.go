package diagnosis

import (
	"fmt"
	"time"
)

// ClassID identifies one of the fixed disease labels
type ClassID int

const (
	ClassHealthy ClassID = iota
	ClassEarlyBlight
	ClassLateBlight
	ClassPowderyMildew
	ClassLeafSpot
	ClassRust
	ClassMosaicVirus
	ClassBacterialSpot

	ClassCount = 8
)

var diseaseNames = [ClassCount]string{
	"Healthy",
	"Early Blight",
	"Late Blight",
	"Powdery Mildew",
	"Leaf Spot",
	"Rust",
	"Mosaic Virus",
	"Bacterial Spot",
}

// Disease returns the display label for the class id.
func (id ClassID) Disease() string {
	if !id.Valid() {
		return "Unknown"
	}
	return diseaseNames[id]
}

func (id ClassID) Valid() bool {
	return id >= 0 && id < ClassCount
}

// CropTypes is a fixed display-only set; the chosen crop carries no
// relationship to the analysis.
var CropTypes = []string{"Tomato", "Potato", "Corn", "Wheat", "Rice", "Soybean"}

// Prediction value object
type Prediction struct {
	ClassID    ClassID `json:"class_id"`
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// ConfidencePct formats the confidence for display.
func (p Prediction) ConfidencePct() string {
	return fmt.Sprintf("%.1f%%", p.Confidence*100)
}

// StoredImage describes a persisted upload. Never mutated after creation.
type StoredImage struct {
	OriginalName string `json:"original_name"`
	StoredName   string `json:"stored_name"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
}

// Aggregate Root: Result of one diagnosis request. Created per request,
// discarded after rendering.
type Result struct {
	Image        StoredImage  `json:"image"`
	Primary      Prediction   `json:"primary_prediction"`
	Alternatives []Prediction `json:"all_predictions,omitempty"`
	CropType     string       `json:"crop_type"`
	DominantHex  string       `json:"dominant_hex,omitempty"`
	AnalyzedAt   time.Time    `json:"analyzed_at"`
}
