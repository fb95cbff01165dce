package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"

	"github.com/ChrisWangg/help-session-to-ics/internal/calendar"
	"github.com/ChrisWangg/help-session-to-ics/internal/config"
	"github.com/ChrisWangg/help-session-to-ics/internal/ics"
	"github.com/ChrisWangg/help-session-to-ics/internal/identity"
	appLog "github.com/ChrisWangg/help-session-to-ics/internal/log"
	"github.com/ChrisWangg/help-session-to-ics/internal/roster"
	"github.com/ChrisWangg/help-session-to-ics/internal/web"
)

// flagConfig holds CLI flag values; non-empty values override the config file.
type flagConfig struct {
	configPath  string
	zid         string
	output      string
	allocations string
	tutors      string
	termStart   string
	serve       bool
	watch       bool
	verify      bool
}

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout)
	appLog.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	flags, err := parseFlags(args, stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return err
	}
	conf.ApplyEnv()
	applyFlags(conf, flags)
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		return err
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Debug("effective config",
		"term_start", conf.TermStart,
		"tutors", conf.Tutors,
		"output", conf.Output,
		"serve", flags.serve,
		"watch", flags.watch,
	)

	termStart, err := roster.ParseTermStart(conf.TermStart)
	if err != nil {
		return err
	}

	dir, err := identity.LoadDirectory(conf.Tutors)
	if err != nil {
		appLog.Error("failed to load tutor directory", err, "path", conf.Tutors)
		return err
	}

	svc := calendar.NewService(roster.NewLoader(conf.CacheDir), conf.Allocations, termStart)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flags.serve {
		return web.NewServer(conf, svc, dir).ListenAndServe(ctx)
	}

	zid, err := resolveZID(conf.ZID, dir, stdin, stdout)
	if err != nil {
		appLog.Error("identity confirmation failed", err)
		return err
	}

	if flags.watch {
		return watch(ctx, conf, svc, zid)
	}

	return generateOnce(ctx, svc, zid, conf.Output, flags.verify, stdout)
}

func parseFlags(args []string, out io.Writer) (flagConfig, error) {
	var cfg flagConfig

	fs := flag.NewFlagSet("helpcal", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&cfg.configPath, "config", "helpcal.yaml", "Path to config file")
	fs.StringVar(&cfg.zid, "zid", "", "Tutor zID (skips the interactive prompt)")
	fs.StringVar(&cfg.output, "out", "", "Output .ics path (overrides config)")
	fs.StringVar(&cfg.allocations, "allocations", "", "Allocations JSON path or URL (overrides config)")
	fs.StringVar(&cfg.tutors, "tutors", "", "Tutor directory JSON path (overrides config)")
	fs.StringVar(&cfg.termStart, "term-start", "", "Monday of term week 1, YYYY-MM-DD (overrides config)")
	fs.BoolVar(&cfg.serve, "serve", false, "Serve calendars over HTTP instead of writing a file")
	fs.BoolVar(&cfg.watch, "watch", false, "Regenerate the calendar on the configured refresh schedule")
	fs.BoolVar(&cfg.verify, "verify", false, "Read the written calendar back and report its event count")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFlags(conf *config.Config, flags flagConfig) {
	if flags.zid != "" {
		conf.ZID = flags.zid
	}
	if flags.output != "" {
		conf.Output = flags.output
	}
	if flags.allocations != "" {
		conf.Allocations = flags.allocations
	}
	if flags.tutors != "" {
		conf.Tutors = flags.tutors
	}
	if flags.termStart != "" {
		conf.TermStart = flags.termStart
	}
}

// resolveZID validates a preset zID or falls back to the interactive prompt.
func resolveZID(preset string, dir identity.Directory, stdin io.Reader, stdout io.Writer) (string, error) {
	if preset != "" {
		if _, err := dir.Lookup(preset); err != nil {
			return "", err
		}
		return preset, nil
	}
	return identity.NewPrompter(stdin, stdout).Confirm(dir)
}

func generateOnce(ctx context.Context, svc *calendar.Service, zid, output string, verify bool, stdout io.Writer) error {
	matched, err := svc.Generate(ctx, zid, output)
	if err != nil {
		appLog.Error("failed to generate calendar", err, "zid", zid)
		return err
	}
	if !matched {
		color.New(color.FgRed).Fprintf(stdout, "No allocations found for zID: %s\n", zid)
		return nil
	}

	color.New(color.FgGreen).Fprintf(stdout,
		"Calendar file '%s' generated successfully at: %s\n", "my_allocations.ics", output)

	if verify {
		events, err := ics.ParseFile(output)
		if err != nil {
			appLog.Error("calendar verification failed", err, "path", output)
			return err
		}
		appLog.Info("calendar verified", "path", output, "event_count", len(events))
	}
	return nil
}

// watch regenerates the calendar immediately and then on every tick of
// the configured cron schedule until ctx is canceled.
func watch(ctx context.Context, conf *config.Config, svc *calendar.Service, zid string) error {
	job := func() {
		matched, err := svc.Generate(ctx, zid, conf.Output)
		if err != nil {
			appLog.Error("watch: regenerate failed", err, "zid", zid)
			return
		}
		if !matched {
			appLog.Warn("watch: no allocations found", "zid", zid)
			return
		}
		appLog.Info("watch: calendar regenerated", "zid", zid, "path", conf.Output)
	}

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, job); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", conf.RefreshCron, err)
	}

	job()
	c.Start()
	appLog.Info("watch started", "refresh", conf.RefreshCron, "zid", zid)

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	appLog.Info("watch stopped")
	return nil
}
