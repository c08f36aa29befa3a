package api

import (
	"context"

	"github.com/weatherdash/weatherdash/internal/dashboard"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/mapview"
)

// SelectOnDashboard returns a picker select func that loads the clicked
// position on d.
func SelectOnDashboard(d *dashboard.Dashboard) mapview.SelectFunc {
	return func(ctx context.Context, c geo.Coordinates) error {
		_, err := d.SelectLocation(ctx, c)
		return err
	}
}

// BindPicker keeps p in step with d: the marker follows the displayed
// coordinates and the overlay follows weather availability.
func BindPicker(d *dashboard.Dashboard, p *mapview.Picker) (cancel func()) {
	sync := func(s dashboard.State) {
		if s.Record != nil {
			p.SetCoords(s.Coords)
		}
		p.SetWeatherAvailable(s.Record != nil)
	}
	sync(d.Store().Snapshot())

	cancels := []func(){
		d.Store().Subscribe(dashboard.TopicCoords, sync),
		d.Store().Subscribe(dashboard.TopicWeather, sync),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}
