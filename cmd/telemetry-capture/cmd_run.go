package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	telemetrycapture "github.com/e7canasta/telemetry-capture"
	"github.com/e7canasta/telemetry-capture/internal/config"
	"github.com/e7canasta/telemetry-capture/internal/emitter"
	"github.com/e7canasta/telemetry-capture/internal/recorder"
	"github.com/e7canasta/telemetry-capture/internal/sink"
)

type runOptions struct {
	statsInterval time.Duration
	duration      time.Duration
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Capture telemetry and deliver it to the configured sinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("rate") {
				cfg.Capture.UpdateRate, _ = cmd.Flags().GetFloat64("rate")
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid configuration: %w", err)
				}
			}

			var opts runOptions
			opts.statsInterval, _ = cmd.Flags().GetDuration("stats-interval")
			opts.duration, _ = cmd.Flags().GetDuration("duration")
			return runCapture(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Float64("rate", 0, "Update rate override (updates per second, 0 < rate <= 100)")
	cmd.Flags().Duration("stats-interval", 10*time.Second, "Interval between stats reports (0 = off)")
	cmd.Flags().Duration("duration", 0, "Stop after this long (0 = until interrupted)")
	return cmd
}

func runCapture(ctx context.Context, cfg *config.Config, opts runOptions, out io.Writer) error {
	capture, err := telemetrycapture.NewCapture(cfg.CaptureOptions())
	if err != nil {
		return err
	}

	fan := sink.NewFanout(sink.NewSampler(cfg.Sampler.Variables, cfg.Sampler.Every))
	defer fan.Close()

	if cfg.MQTT.Enabled {
		em := emitter.NewMQTTEmitter(cfg.MQTT)
		if err := em.Connect(ctx); err != nil {
			return err
		}
		defer em.Disconnect()
		if err := fan.Subscribe("mqtt", em); err != nil {
			return err
		}
	}

	if cfg.Recorder.Enabled {
		rec, err := recorder.Open(cfg.Recorder.Path)
		if err != nil {
			return err
		}
		defer rec.Close()
		if err := fan.Subscribe("recorder", rec); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if opts.duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			slog.Info("received interrupt signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	events, err := capture.Start(ctx)
	if err != nil {
		return err
	}
	startTime := time.Now()

	if opts.statsInterval > 0 {
		statsTicker := time.NewTicker(opts.statsInterval)
		defer statsTicker.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-statsTicker.C:
					printStats(out, capture.Stats(), time.Since(startTime))
				}
			}
		}()
	}

	// The capture closes events once ctx is done, so draining to the end
	// delivers everything already queued.
	runErr := fan.Run(context.Background(), events)

	shutdownTimeout := time.Duration(cfg.ShutdownTimeoutS) * time.Second
	stopped := make(chan error, 1)
	go func() { stopped <- capture.Stop() }()
	select {
	case err := <-stopped:
		if err != nil {
			slog.Error("error stopping capture", "error", err)
		}
	case <-time.After(shutdownTimeout):
		slog.Warn("shutdown timeout exceeded", "timeout", shutdownTimeout)
	}

	printFinalStats(out, capture.Stats(), time.Since(startTime), fan.TotalDelivered())

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func printStats(out io.Writer, stats telemetrycapture.CaptureStats, uptime time.Duration) {
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "╭─────────────────────────────────────────────────────────╮\n")
	fmt.Fprintf(out, "│ Capture Statistics (Uptime: %s)\n", uptime.Round(time.Second))
	fmt.Fprintf(out, "├─────────────────────────────────────────────────────────┤\n")
	fmt.Fprintf(out, "│ Connected:          %6v\n", stats.IsConnected)
	fmt.Fprintf(out, "│ Session:            %s\n", stats.SessionID)
	fmt.Fprintf(out, "│ Frames Published:   %6d\n", stats.FramesPublished)
	fmt.Fprintf(out, "│ Documents:          %6d (revision %d)\n", stats.DocumentsPublished, stats.SessionRevision)
	fmt.Fprintf(out, "│ Last Tick:          %6d\n", stats.LastTick)
	fmt.Fprintf(out, "│ Update Rate:        %6.2f /s (interval %v)\n", stats.UpdateRate, stats.Interval)
	fmt.Fprintf(out, "│ Delivery Rate:      %6.2f /s (stable: %v)\n", stats.DeliveryRate, stats.DeliveryStable)
	fmt.Fprintf(out, "│ Latency:            %6d ms\n", stats.LatencyMS)
	fmt.Fprintf(out, "│ Bytes Copied:       %s\n", humanize.Bytes(stats.BytesCopied))
	fmt.Fprintf(out, "│ Reconnects:         %6d\n", stats.Reconnects)
	totalErrors := stats.ErrorsUnavailable + stats.ErrorsLayout + stats.ErrorsUnknown
	if totalErrors > 0 {
		fmt.Fprintf(out, "├─────────────────────────────────────────────────────────┤\n")
		fmt.Fprintf(out, "│ Region Unavailable: %6d\n", stats.ErrorsUnavailable)
		fmt.Fprintf(out, "│ Layout Errors:      %6d\n", stats.ErrorsLayout)
		fmt.Fprintf(out, "│ Unknown Errors:     %6d\n", stats.ErrorsUnknown)
	}
	fmt.Fprintf(out, "╰─────────────────────────────────────────────────────────╯\n")
}

func printFinalStats(out io.Writer, stats telemetrycapture.CaptureStats, uptime time.Duration, delivered uint64) {
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "                     Final Statistics                      \n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "  Total Uptime:       %s\n", uptime.Round(time.Second))
	fmt.Fprintf(out, "  Frames Published:   %d\n", stats.FramesPublished)
	fmt.Fprintf(out, "  Documents:          %d\n", stats.DocumentsPublished)
	fmt.Fprintf(out, "  Sessions:           %d\n", stats.CatalogsPublished)
	fmt.Fprintf(out, "  Events Delivered:   %d\n", delivered)
	fmt.Fprintf(out, "  Bytes Copied:       %s\n", humanize.Bytes(stats.BytesCopied))
	fmt.Fprintf(out, "  Reconnection Count: %d\n", stats.Reconnects)
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
}
