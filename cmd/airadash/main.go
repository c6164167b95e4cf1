package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/aira-xamk/airadash/internal/analysis"
	"github.com/aira-xamk/airadash/internal/report"
	"github.com/aira-xamk/airadash/internal/store"
)

type cli struct {
	Postgres struct {
		Host     string `env:"POSTGRES_HOST" default:"localhost" help:"Database host."`
		Port     string `env:"POSTGRES_PORT" default:"5432" help:"Database port."`
		User     string `env:"POSTGRES_USER" help:"Database user."`
		Password string `env:"POSTGRES_PASSWORD" help:"Database password."`
		Database string `env:"POSTGRES_DATABASE" help:"Database name."`
		SSLMode  string `env:"POSTGRES_SSLMODE" default:"disable" help:"Postgres sslmode."`
	} `embed:"" prefix:"postgres-"`

	Timezone string `default:"Europe/Helsinki" help:"Location used for date parsing and time bucketing."`
	JSON     bool   `help:"Emit the full report as JSON instead of text."`

	Ranges         rangesCmd         `cmd:"" help:"Show the available data span and filter choices."`
	Events         eventsCmd         `cmd:"" help:"Share of the selected event types among all events, per period."`
	Municipalities municipalitiesCmd `cmd:"" help:"Top 10 municipalities per event type by incidents per 1000 inhabitants."`
	Fire           fireCmd           `cmd:"" help:"Monthly fire event counts correlated with weather averages."`
}

type app struct {
	store *store.Store
	agg   *analysis.Aggregator
	loc   *time.Location
	json  bool
}

func main() {
	var flags cli
	kctx := kong.Parse(&flags,
		kong.Name("airadash"),
		kong.Description("Rescue event analytics over the AIRA database."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	loc, err := time.LoadLocation(flags.Timezone)
	if err != nil {
		log.Printf("could not load timezone %s, using UTC: %v", flags.Timezone, err)
		loc = time.UTC
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		flags.Postgres.Host, flags.Postgres.Port, flags.Postgres.User,
		flags.Postgres.Password, flags.Postgres.Database, flags.Postgres.SSLMode)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(db.Ping, bo); err != nil {
		// Analyses degrade to "no data" rather than refusing to start.
		log.Printf("database unreachable: %v", err)
	}

	st := store.New(db)
	a := &app{
		store: st,
		agg:   analysis.NewAggregator(st, loc),
		loc:   loc,
		json:  flags.JSON,
	}
	kctx.FatalIfErrorf(kctx.Run(a))
}

type rangesCmd struct{}

func (c *rangesCmd) Run(a *app) error {
	ranges := a.store.DataRanges()
	if ranges.MinDate.IsZero() {
		fmt.Println("No data available from the store.")
		return nil
	}
	if a.json {
		return json.NewEncoder(os.Stdout).Encode(ranges)
	}
	fmt.Printf("Data from %s to %s\n", ranges.MinDate.In(a.loc).Format("2006-01-02"), ranges.MaxDate.In(a.loc).Format("2006-01-02"))
	fmt.Printf("Event types (>%d occurrences): %d\n", store.NoiseFloor, len(ranges.EventTypes))
	for _, et := range ranges.EventTypes {
		fmt.Println("  " + et)
	}
	fmt.Printf("Municipalities: %d\n", len(ranges.Municipalities))
	fmt.Printf("Stations: %d\n", len(ranges.Stations))
	return nil
}

type eventsCmd struct {
	Start          string   `required:"" help:"Start date (YYYY-MM-DD), inclusive."`
	End            string   `required:"" help:"End date (YYYY-MM-DD), inclusive."`
	Types          []string `name:"type" help:"Event types to analyze (repeatable)."`
	Municipalities []string `name:"municipality" help:"Restrict to municipalities (repeatable)."`
	Stations       []string `name:"station" help:"Restrict to dispatch centers (repeatable)."`
	Granularity    string   `default:"day" enum:"day,week,month,year" help:"Time bucketing."`
	ByStation      bool     `help:"Also break the shares down per dispatch center."`
}

func (c *eventsCmd) Run(a *app) error {
	f, err := analysis.ParseFilter(c.Start, c.End, c.Types, c.Municipalities, c.Stations, c.Granularity, c.ByStation, a.loc)
	if err != nil {
		return err
	}
	return a.print(report.Rates(f, a.agg.Rates(f)))
}

type municipalitiesCmd struct {
	Types []string `name:"type" help:"Event types to rank (repeatable)."`
}

func (c *municipalitiesCmd) Run(a *app) error {
	if len(c.Types) == 0 {
		// Selection check happens before any store query.
		return a.print(report.Municipalities(analysis.TopMunicipalityRates(nil, nil)))
	}
	merged := analysis.MergeIncidents(a.store.IncidentCounts(), a.store.PopulationByYear(analysis.PopulationYear))
	return a.print(report.Municipalities(analysis.TopMunicipalityRates(merged, c.Types)))
}

type fireCmd struct {
	Axis  string   `default:"precipitation" enum:"precipitation,avg-temp,max-temp,min-temp,snow-depth" help:"Weather variable for the X axis."`
	Types []string `name:"type" help:"Restrict to specific fire event types (repeatable)."`
}

func (c *fireCmd) Run(a *app) error {
	axis, err := analysis.ParseWeatherAxis(c.Axis)
	if err != nil {
		return err
	}
	events := a.store.FireEvents(c.Types)
	weather := a.store.WeatherDays()
	if err := a.print(report.FireWeather(axis, analysis.CorrelateFireWeather(events, weather, a.loc))); err != nil {
		return err
	}

	if !a.json {
		if options := a.store.FrequentFireTypes(); len(options) > 0 {
			fmt.Printf("\nFire event types (>%d occurrences):\n", store.NoiseFloor)
			for _, o := range options {
				fmt.Printf("  %s (%d)\n", o.EventType, o.Count)
			}
		}
	}
	return nil
}

func (a *app) print(rep report.Report) error {
	if a.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Println(rep.Summary)
	if rep.Status != analysis.StatusOK {
		return nil
	}

	fmt.Println()
	printTable(rep.Table)
	return nil
}

func printTable(t report.Table) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for i, col := range t.Columns {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, col)
	}
	fmt.Fprintln(w)
	for _, row := range t.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}
