package geocode

import "strings"

// UnknownLocation labels a place with no usable address fields.
const UnknownLocation = "Unknown location"

// Address holds the place-type fields of a reverse or forward lookup.
type Address struct {
	Village       string `json:"village"`
	Municipality  string `json:"municipality"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	Hamlet        string `json:"hamlet"`
	County        string `json:"county"`
	State         string `json:"state"`
	Country       string `json:"country"`
}

// CityName picks the most specific place label. displayName is the
// provider's comma separated label, used when no address field is set.
func CityName(addr Address, displayName string) string {
	for _, v := range []string{
		addr.Village,
		addr.Municipality,
		addr.City,
		addr.Town,
		addr.Suburb,
		addr.Neighbourhood,
		addr.Hamlet,
		addr.County,
		addr.State,
	} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	if first, _, _ := strings.Cut(displayName, ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	return UnknownLocation
}

// FullName appends the region (state, county or country) to city.
func FullName(addr Address, city string) string {
	region := addr.State
	if region == "" {
		region = addr.County
	}
	if region == "" {
		region = addr.Country
	}
	if region == "" || region == city {
		return city
	}
	return city + ", " + region
}
