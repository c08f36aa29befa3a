// Package timeseries provides the hourly value series used by the weather record.
//
// A nil element means the provider had no value for that hour. Zero is a real
// reading and is never treated as missing.
package timeseries

import "encoding/json"

// Series is an hourly series of optional values.
type Series []*float64

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Of builds a fully populated series.
func Of(values ...float64) Series {
	s := make(Series, len(values))
	for i, v := range values {
		s[i] = Float(v)
	}
	return s
}

// At returns the value at i and whether it is present.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) || s[i] == nil {
		return 0, false
	}
	return *s[i], true
}

// Ptr returns the element at i, or nil when out of range.
func (s Series) Ptr(i int) *float64 {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

// Window copies s[start:end]. A series too short for the window yields an
// empty, non-nil series.
func (s Series) Window(start, end int) Series {
	if start < 0 || end < start || end > len(s) {
		return Series{}
	}
	out := make(Series, end-start)
	copy(out, s[start:end])
	return out
}

// Max returns the largest present value.
func (s Series) Max() (float64, bool) {
	var (
		best  float64
		found bool
	)
	for _, v := range s {
		if v == nil {
			continue
		}
		if !found || *v > best {
			best = *v
			found = true
		}
	}
	return best, found
}

// Map returns a new series with fn applied to every present value.
func (s Series) Map(fn func(float64) float64) Series {
	out := make(Series, len(s))
	for i, v := range s {
		if v != nil {
			out[i] = Float(fn(*v))
		}
	}
	return out
}

// Align maps values keyed by times onto backbone. Hours with no match are nil,
// so the result always has len(backbone).
func Align(backbone, times []string, values Series) Series {
	index := make(map[string]int, len(times))
	for i, t := range times {
		index[t] = i
	}
	out := make(Series, len(backbone))
	for i, t := range backbone {
		if j, ok := index[t]; ok {
			out[i] = values.Ptr(j)
		}
	}
	return out
}

// WindowStrings copies s[start:end] with the same rules as Series.Window.
func WindowStrings(s []string, start, end int) []string {
	if start < 0 || end < start || end > len(s) {
		return []string{}
	}
	out := make([]string, end-start)
	copy(out, s[start:end])
	return out
}

// MarshalJSON encodes an empty series as [] rather than null.
func (s Series) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]*float64(s))
}
