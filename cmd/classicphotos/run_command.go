package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"classicphotos/internal/catalog"
	"classicphotos/internal/config"
	"classicphotos/internal/fetch"
	"classicphotos/internal/filter"
	"classicphotos/internal/gallery"
	"classicphotos/internal/logging"
	"classicphotos/internal/photos"
	"classicphotos/internal/services"
)

type viewport struct {
	rows   int
	step   int
	settle time.Duration
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		catalogFlag string
		rowsFlag    int
		stepFlag    int
		watch       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the catalog and scroll through it, downloading and filtering visible photos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another classicphotos run is already in progress (lock %s)", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			logger, closeLog, err := ctx.newLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = closeLog() }()

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			location := cfg.Catalog.Path
			if strings.TrimSpace(catalogFlag) != "" {
				location = catalogFlag
			}
			view := viewport{
				rows:   pickPositive(rowsFlag, cfg.Viewport.Rows),
				step:   pickPositive(stepFlag, cfg.Viewport.ScrollStep),
				settle: cfg.SettleTimeoutDuration(),
			}
			out := &syncWriter{w: cmd.OutOrStdout()}
			return runGallery(signalCtx, cfg, location, view, watch, out, logger)
		},
	}

	cmd.Flags().StringVar(&catalogFlag, "catalog", "", "Catalog path or URL (overrides config)")
	cmd.Flags().IntVar(&rowsFlag, "rows", 0, "Visible rows per window (overrides config)")
	cmd.Flags().IntVar(&stepFlag, "step", 0, "Rows scrolled between windows (overrides config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Print each row as it reloads")
	return cmd
}

func runGallery(ctx context.Context, cfg *config.Config, location string, view viewport, watch bool, out *syncWriter, logger *slog.Logger) error {
	colorize := shouldColorize(out.w)
	client := fetch.NewFromConfig(cfg)

	cat, err := catalog.Load(ctx, location, client, logger)
	if err != nil {
		if !errors.Is(err, services.ErrCatalog) {
			return err
		}
		out.Println(renderStatusLine("Catalog", toneBad, services.Details(err).Message, colorize))
		cat = &catalog.Catalog{}
	}

	var onReload func(gallery.Row)
	if watch {
		onReload = func(row gallery.Row) {
			out.Println(renderStatusLine(row.Name, stateTone(row.State), stateLabel(row.State), colorize))
		}
	}

	g, err := gallery.New(gallery.Config{
		Records:              cat.Records,
		Fetcher:              client,
		Decoder:              fetch.ImageDecoder{},
		Transformer:          filter.NewSepia(cfg.Pipeline.SepiaIntensity),
		FetchConcurrency:     cfg.Pipeline.FetchConcurrency,
		TransformConcurrency: cfg.Pipeline.TransformConcurrency,
		StageOverrides:       cfg.Logging.StageOverrides,
		OnReload:             onReload,
		Logger:               logger,
	})
	if err != nil {
		return err
	}
	if err := g.Start(ctx); err != nil {
		return fmt.Errorf("start gallery: %w", err)
	}
	defer g.Close()

	started := time.Now()
	if err := driveViewport(ctx, g, view, logger); err != nil {
		return err
	}

	status, err := g.Status(ctx)
	if err != nil {
		return err
	}
	renderSummary(out, g.Rows(), status, time.Since(started), colorize)
	return nil
}

// driveViewport scrolls a window of view.rows rows across the gallery,
// waiting up to view.settle for each window's work to finish.
func driveViewport(ctx context.Context, g *gallery.Gallery, view viewport, logger *slog.Logger) error {
	total := g.Len()
	if total == 0 {
		return nil
	}
	logger = logging.NewComponentLogger(logger, "viewport")
	for start := 0; ; start += view.step {
		end := min(start+view.rows, total)
		keys := make([]int, 0, end-start)
		for key := start; key < end; key++ {
			keys = append(keys, key)
		}

		if err := g.BeginDrag(ctx); err != nil {
			return err
		}
		if err := g.SetVisible(ctx, keys); err != nil {
			return err
		}
		for _, key := range keys {
			if _, err := g.Render(ctx, key); err != nil {
				return err
			}
		}
		if err := g.EndDrag(ctx); err != nil {
			return err
		}

		waitCtx, cancel := context.WithTimeout(ctx, view.settle)
		err := g.WaitIdle(waitCtx)
		cancel()
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			logging.WarnWithContext(logger, "window did not settle; scrolling on", "viewport_settle_timeout",
				logging.Int("first_row", start),
				logging.Int("last_row", end-1),
				logging.Duration("settle_timeout", view.settle),
				logging.String(logging.FieldErrorHint, "raise viewport.settle_timeout or fetch_concurrency"),
			)
		default:
			return err
		}

		if end >= total {
			return nil
		}
	}
}

func renderSummary(out *syncWriter, rows []gallery.Row, status gallery.Status, elapsed time.Duration, colorize bool) {
	for _, line := range renderSectionHeader("Gallery", colorize) {
		out.Println(line)
	}
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, []string{
			strconv.Itoa(row.Key),
			row.Name,
			stateLabel(row.State),
			row.Source,
		})
	}
	out.Println(renderTable(
		[]column{{title: "#", numeric: true}, {title: "Name"}, {title: "State"}, {title: "Source"}},
		table,
	))

	pendingCount := status.States[photos.StateNew] + status.States[photos.StateDownloaded]
	out.Println(renderStatusLine("Filtered", toneGood, strconv.Itoa(status.States[photos.StateFiltered]), colorize))
	failedTone := toneGood
	if status.States[photos.StateFailed] > 0 {
		failedTone = toneBad
	}
	out.Println(renderStatusLine("Failed", failedTone, strconv.Itoa(status.States[photos.StateFailed]), colorize))
	pendingTone := toneGood
	if pendingCount > 0 {
		pendingTone = toneWarn
	}
	out.Println(renderStatusLine("Unfinished", pendingTone, strconv.Itoa(pendingCount), colorize))
	out.Println(renderStatusLine("Elapsed", toneInfo, elapsed.Round(time.Millisecond).String(), colorize))
}

func pickPositive(flagValue, fallback int) int {
	if flagValue > 0 {
		return flagValue
	}
	return fallback
}

// syncWriter serializes writes from the dispatch loop and the command goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, line)
}
