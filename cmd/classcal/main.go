package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"classcal/internal/api"
	"classcal/internal/config"
	"classcal/internal/ics"
	appLog "classcal/internal/log"
	"classcal/internal/model"
	"classcal/internal/schedule"
	"classcal/internal/timeofday"
	"classcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	date       string
	icsOut     string
	debug      bool
}

func main() {
	flags := parseFlags()

	// A missing .env is normal in production.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		appLog.Error("failed to read .env", err)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	conf.ApplyEnv(os.Getenv)

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.debug {
		conf.Log.Level, conf.Log.Format = "debug", "console"
	}
	appLog.Configure(conf.Log.Level, conf.Log.Format)
	defer appLog.Sync()

	appLog.Info("classcal starting",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"api_url", conf.APIURL,
		"refresh", conf.RefreshCron,
		"ics_count", len(conf.ICS),
		"once", flags.once,
	)

	client := api.NewClient(api.Options{
		BaseURL:  conf.APIURL,
		Token:    conf.APIToken,
		CacheDir: conf.CacheDir,
	})
	var srv *web.Server
	loader := web.LoaderFunc(func(ctx context.Context) (api.Bundle, error) {
		b, err := client.Load(ctx)
		if err != nil {
			return api.Bundle{}, err
		}
		mergeLocalCalendars(&b, conf.ICS, srv.Location())
		return b, nil
	})
	srv = web.NewServer(conf, loader)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case flags.once:
		err = runOnce(ctx, os.Stdout, loader, conf, srv.Location(), flags.date)
	case flags.icsOut != "":
		err = exportCalendar(ctx, loader, srv.Location(), flags.icsOut)
	default:
		err = serve(ctx, conf, srv)
	}
	if err != nil {
		appLog.Error("classcal failed", err)
		appLog.Sync()
		os.Exit(1)
	}
	appLog.Info("classcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./classcal.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Print one day's schedule and exit")
	flag.StringVar(&cfg.date, "date", "", "Date for -once (YYYY-MM-DD, default today)")
	flag.StringVar(&cfg.icsOut, "ics", "", "Write all schedules as an .ics file to this path and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug logging in console format")

	flag.Parse()

	return cfg
}

// serve runs the HTTP API and refreshes its snapshot on the configured
// cron schedule until ctx is canceled.
func serve(ctx context.Context, conf *config.Config, srv *web.Server) error {
	refresh := func() {
		rctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		// Errors are logged by Refresh; the previous snapshot stays in use.
		_ = srv.Refresh(rctx)
	}
	refresh()

	c := cron.New(cron.WithLocation(srv.Location()))
	if _, err := c.AddFunc(conf.RefreshCron, refresh); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", conf.RefreshCron, err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	httpSrv := &http.Server{
		Addr:              conf.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		appLog.Info("signal received, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// runOnce prints one day's classes and free time.
func runOnce(ctx context.Context, w io.Writer, loader web.Loader, conf *config.Config, loc *time.Location, date string) error {
	day := model.DateOf(time.Now().In(loc))
	if date != "" {
		d, err := model.ParseDate(date)
		if err != nil {
			return err
		}
		day = d
	}

	b, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	built := schedule.BuildDay(b.Schedules, day, conf.MinGapMinutes)

	fmt.Fprintf(w, "%s %s (%s)\n", day.Weekday(), day, loc)
	if len(built.Occurrences) == 0 {
		fmt.Fprintln(w, "  no classes")
	}
	for _, occ := range built.Occurrences {
		r := occ.Record
		start, _ := timeofday.FormatHuman(r.StartTime)
		end, _ := timeofday.FormatHuman(r.EndTime)
		fmt.Fprintf(w, "  %8s - %-8s  %s", start, end, r.Subject)
		if r.Room != "" {
			fmt.Fprintf(w, " (%s)", r.Room)
		}
		fmt.Fprintln(w)
	}
	for _, slot := range built.FreeSlots {
		start, _ := timeofday.FormatHuman(slot.StartTime)
		end, _ := timeofday.FormatHuman(slot.EndTime)
		fmt.Fprintf(w, "  free %s - %s (%s)\n", start, end, timeofday.FormatDuration(slot.DurationMinutes))
	}
	if n := len(built.Skipped); n > 0 {
		fmt.Fprintf(w, "  %d malformed record(s) skipped\n", n)
	}
	return nil
}

func exportCalendar(ctx context.Context, loader web.Loader, loc *time.Location, path string) error {
	b, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	res := ics.Export(b.Schedules, ics.ExportOptions{Location: loc, Now: time.Now(), Name: "Classes"})
	if err := os.WriteFile(path, []byte(res.Calendar), 0o644); err != nil {
		return err
	}
	appLog.Info("calendar exported", "path", path, "events", res.Events, "skipped", len(res.Skipped))
	return nil
}

// mergeLocalCalendars appends records imported from configured .ics files.
// A calendar that cannot be read is logged and left out.
func mergeLocalCalendars(b *api.Bundle, sources []config.ICSConfig, loc *time.Location) {
	for _, src := range sources {
		res, err := ics.ImportFile(ics.Source{ID: src.ID, Path: src.Path}, loc)
		if err != nil {
			appLog.Error("local calendar unavailable", err, "id", src.ID)
			continue
		}
		b.Schedules = append(b.Schedules, res.Records...)
		b.Reports = append(b.Reports, api.Report{
			Resource: "ics:" + src.ID,
			Accepted: len(res.Records),
			Rejected: res.Skipped,
		})
	}
}
