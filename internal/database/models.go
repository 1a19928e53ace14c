package database

// SeriesMetadata holds the provider-reported description of one series.
// Replaced wholesale on every extraction.
type SeriesMetadata struct {
	ID          string
	Title       string
	Frequency   string
	Units       string
	LastUpdated string
}

// Observation is one (date, value) point of a series. A nil Value means the
// provider reported the date with no data.
type Observation struct {
	Date  string
	Value *float64
}

// LongRow is one row of the full long-store snapshot fed to the denormalizer.
type LongRow struct {
	Date     string
	SeriesID string
	Value    *float64
}

// WideRow is one denormalized row: a date plus one value per wide column,
// positionally aligned to the column list it was built against.
type WideRow struct {
	Date   string
	Values []*float64
}

// ExtractionLogEntry is one append-only audit record. One entry is written
// per series per extraction attempt, success or error.
type ExtractionLogEntry struct {
	ID          int64
	SeriesID    string
	ExtractedAt string
	Status      string // "success" or "error"
	Message     string
}

// Extraction log statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Stats contains aggregate database statistics.
type Stats struct {
	SeriesCount      int
	ObservationCount int
	WideRowCount     int
	FirstObservation string
	LastObservation  string
	LogSuccesses     int
	LogErrors        int
}
