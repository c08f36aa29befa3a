// Package main provides a command-line forecast for one location, built on
// the same dashboard state as the view host.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/app"
	"github.com/weatherdash/weatherdash/internal/config"
	"github.com/weatherdash/weatherdash/internal/dashboard"
	"github.com/weatherdash/weatherdash/internal/dayslice"
	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/persistence"
	"github.com/weatherdash/weatherdash/internal/storage"
	"github.com/weatherdash/weatherdash/internal/units"
	"github.com/weatherdash/weatherdash/internal/weather"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var errUsage = errors.New("usage error")

// builder creates the dashboard the command drives.
type builder func(log zerolog.Logger) (*dashboard.Dashboard, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, newDashboard)
	stop()
	os.Exit(code)
}

// newDashboard wires the live providers over an in-memory store, so every
// invocation behaves like a first visit.
func newDashboard(log zerolog.Logger) (*dashboard.Dashboard, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	providers := app.NewProviders(app.ProvidersConfig{
		Config: cfg,
		Logger: log,
	})

	return dashboard.New(dashboard.Config{
		Weather: providers.Weather,
		Locator: providers.Locator,
		Persistence: persistence.New(persistence.Config{
			Store:  storage.NewMemoryStore(),
			Logger: log,
		}),
		Logger: log,
	}), nil
}

type options struct {
	query     string
	coords    *geo.Coordinates
	day       int
	tab       dayslice.Tab
	showCards bool
	showChart bool
	imperial  bool
	verbose   bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("forecast", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: forecast [-q query | -lat lat -lng lng] [-day n] [-tab tab] [-cards] [-chart] [-imperial]")
		fs.PrintDefaults()
	}

	var (
		opts     options
		lat, lng float64
		tab      string
	)
	fs.StringVar(&opts.query, "q", "", "place to search for")
	fs.Float64Var(&lat, "lat", 0, "latitude of the location")
	fs.Float64Var(&lng, "lng", 0, "longitude of the location")
	fs.IntVar(&opts.day, "day", dayslice.DefaultDay, "forecast day index, clamped to the available days")
	fs.StringVar(&tab, "tab", string(dayslice.TabOverview), "detail tab")
	fs.BoolVar(&opts.showCards, "cards", false, "print the daily forecast cards")
	fs.BoolVar(&opts.showChart, "chart", false, "print the tab's chart spec as JSON")
	fs.BoolVar(&opts.imperial, "imperial", false, "use imperial units")
	fs.BoolVar(&opts.verbose, "v", false, "log provider activity to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["lat"] != set["lng"] {
		return nil, fmt.Errorf("%w: -lat and -lng must be given together", errUsage)
	}
	if set["lat"] {
		if opts.query != "" {
			return nil, fmt.Errorf("%w: -q cannot be combined with -lat/-lng", errUsage)
		}
		c := geo.Coordinates{Lat: lat, Lng: lng}
		if !c.Valid() {
			return nil, fmt.Errorf("%w: coordinates out of range", errUsage)
		}
		opts.coords = &c
	}
	if set["q"] && opts.query == "" {
		return nil, fmt.Errorf("%w: -q must not be empty", errUsage)
	}
	if opts.day < 0 {
		return nil, fmt.Errorf("%w: -day must not be negative", errUsage)
	}

	opts.tab = dayslice.Tab(tab)
	if !opts.tab.Valid() {
		return nil, fmt.Errorf("%w: unknown tab %q", errUsage, tab)
	}
	return &opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, build builder) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "forecast: %v\n", err)
		}
		return exitUsage
	}

	level := zerolog.WarnLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()

	dash, err := build(log)
	if err != nil {
		fmt.Fprintf(stderr, "forecast: %v\n", err)
		return exitFailure
	}
	defer dash.Close()

	if opts.imperial {
		if err := dash.SetUnits(ctx, units.Imperial); err != nil {
			fmt.Fprintf(stderr, "forecast: %v\n", err)
			return exitFailure
		}
	}

	if err := resolve(ctx, dash, opts); err != nil {
		fmt.Fprintf(stderr, "forecast: %s\n", failureMessage(dash, err))
		return exitFailure
	}

	if err := dash.SetActiveTab(opts.tab); err != nil {
		fmt.Fprintf(stderr, "forecast: %v\n", err)
		return exitUsage
	}
	dash.SelectDay(opts.day)

	if err := render(stdout, dash, opts); err != nil {
		fmt.Fprintf(stderr, "forecast: %v\n", err)
		return exitFailure
	}
	return exitOK
}

// resolve loads the requested location. Without one, the first-visit policy
// applies and the default location is the last resort.
func resolve(ctx context.Context, dash *dashboard.Dashboard, opts *options) error {
	switch {
	case opts.query != "":
		_, err := dash.Search(ctx, opts.query)
		return err
	case opts.coords != nil:
		_, err := dash.SelectLocation(ctx, *opts.coords)
		return err
	}

	if err := dash.Bootstrap(ctx); err != nil {
		return err
	}
	if dash.Store().Snapshot().Record != nil {
		return nil
	}
	_, err := dash.SelectLocation(ctx, geo.Default)
	return err
}

func failureMessage(dash *dashboard.Dashboard, err error) string {
	if ve := dash.Store().Snapshot().Error; ve != nil {
		return ve.Message
	}
	return err.Error()
}

func render(w io.Writer, dash *dashboard.Dashboard, opts *options) error {
	st := dash.Store().Snapshot()
	rec := st.Record

	if opts.showChart {
		spec, err := dash.Chart(opts.tab)
		if err != nil {
			return fmt.Errorf("chart: %w", err)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(spec)
	}

	fmt.Fprintf(w, "%s\n", rec.FullName)
	fmt.Fprintf(w, "%.4f, %.4f  %s  now %s\n",
		rec.Coords.Lat, rec.Coords.Lng, rec.Timezone,
		units.FormatTemp(rec.Current.Temperature, st.Units))
	fmt.Fprintf(w, "Day %d of %d%s\n\n", st.SelectedDay+1, rec.DayCount(), dayLabel(rec, st.SelectedDay))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	title, details := dash.Details()
	fmt.Fprintf(tw, "%s\n", title)
	for _, d := range details {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", d.Title, d.Value, d.Description)
	}

	if opts.showCards {
		fmt.Fprintln(tw)
		for _, c := range dash.Cards() {
			marker := " "
			if c.IsSelected {
				marker = "*"
			}
			fmt.Fprintf(tw, "%s %s %d\t%s / %s\t%s\n",
				marker, c.DayName, c.DayNumber,
				units.FormatTemp(c.TempMax, st.Units),
				units.FormatTemp(c.TempMin, st.Units),
				c.Condition)
		}
	}
	return tw.Flush()
}

func dayLabel(rec *weather.Record, day int) string {
	if day < len(rec.Daily.Time) {
		return ": " + rec.Daily.Time[day]
	}
	return ""
}
