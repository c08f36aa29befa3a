package pollen

import (
	"errors"
	"time"

	"github.com/weatherdash/weatherdash/internal/timeseries"
)

// Pollen errors.
var (
	ErrProviderUnavailable = errors.New("pollen provider unavailable")
	ErrOutsideCoverage     = errors.New("pollen data is only available in Europe")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrPollenDisabled      = errors.New("pollen disabled by feature flag")
)

// Species is an allergen tracked by the CAMS European model.
// Values are the provider's variable names.
type Species string

const (
	SpeciesAlder   Species = "alder_pollen"
	SpeciesBirch   Species = "birch_pollen"
	SpeciesGrass   Species = "grass_pollen"
	SpeciesMugwort Species = "mugwort_pollen"
	SpeciesOlive   Species = "olive_pollen"
	SpeciesRagweed Species = "ragweed_pollen"
)

// AllSpecies returns all supported species.
func AllSpecies() []Species {
	return []Species{SpeciesAlder, SpeciesBirch, SpeciesGrass, SpeciesMugwort, SpeciesOlive, SpeciesRagweed}
}

// DisplayName returns the species label.
func (s Species) DisplayName() string {
	switch s {
	case SpeciesAlder:
		return "Alder"
	case SpeciesBirch:
		return "Birch"
	case SpeciesGrass:
		return "Grass"
	case SpeciesMugwort:
		return "Mugwort"
	case SpeciesOlive:
		return "Olive"
	case SpeciesRagweed:
		return "Ragweed"
	default:
		return string(s)
	}
}

// RiskLevel represents the pollen risk level.
type RiskLevel string

const (
	RiskNone     RiskLevel = "NONE"
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// RiskLevelFromIndex converts a numeric index (0-5 scale) to RiskLevel.
func RiskLevelFromIndex(index float64) RiskLevel {
	switch {
	case index <= 0:
		return RiskNone
	case index <= 1:
		return RiskLow
	case index <= 2:
		return RiskModerate
	case index <= 3:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// Label returns the display text for the level.
func (r RiskLevel) Label() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskModerate:
		return "Moderate"
	case RiskHigh:
		return "High"
	case RiskVeryHigh:
		return "Very high"
	default:
		return "No data"
	}
}

// Current holds the latest reading per species. Missing species are absent.
type Current map[Species]*float64

// Hourly holds hourly series per species.
// A nil *Hourly means no pollen data; accessors then return empty series.
type Hourly struct {
	Time   []string                      `json:"time"`
	Series map[Species]timeseries.Series `json:"series"`
}

// Get returns the series for s. It is safe on a nil receiver.
func (h *Hourly) Get(s Species) timeseries.Series {
	if h == nil || h.Series == nil {
		return timeseries.Series{}
	}
	if series, ok := h.Series[s]; ok {
		return series
	}
	return timeseries.Series{}
}

// Window slices every series to [start, end).
func (h *Hourly) Window(start, end int) *Hourly {
	if h == nil {
		return nil
	}
	out := &Hourly{
		Time:   timeseries.WindowStrings(h.Time, start, end),
		Series: make(map[Species]timeseries.Series, len(h.Series)),
	}
	for s, series := range h.Series {
		out.Series[s] = series.Window(start, end)
	}
	return out
}

// AlignTo re-keys every series onto backbone by timestamp.
func (h *Hourly) AlignTo(backbone []string) *Hourly {
	if h == nil {
		return nil
	}
	out := &Hourly{
		Time:   append([]string(nil), backbone...),
		Series: make(map[Species]timeseries.Series, len(h.Series)),
	}
	for s, series := range h.Series {
		out.Series[s] = timeseries.Align(backbone, h.Time, series)
	}
	return out
}

// Peak returns the highest species value at hour i and that species.
// Missing values count as zero. ok is false when no species has a positive value.
func (h *Hourly) Peak(i int) (value float64, species Species, ok bool) {
	for _, s := range AllSpecies() {
		v, present := h.Get(s).At(i)
		if present && v > value {
			value, species, ok = v, s, true
		}
	}
	return value, species, ok
}

// Data is one provider response.
type Data struct {
	Current   Current
	Hourly    Hourly
	FetchedAt time.Time
	Provider  string
}
