package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/llehouerou/pulsar/internal/config"
	"github.com/llehouerou/pulsar/internal/engine"
	"github.com/llehouerou/pulsar/internal/event"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		volume  float64
		format  string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "pulsar FILE...",
		Short: "Play audio files through the pulsar playback engine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(args, volume, format, verbose)
		},
		SilenceUsage: true,
	}
	cmd.Flags().Float64VarP(&volume, "volume", "v", 1.0, "initial volume (0.0-1.0)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "format hint (mp3, flac, ogg)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	return cmd
}

func run(files []string, volume float64, format string, verbose bool) error {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts := cfg.EngineOptions()
	opts.Logger = log
	opts.InitialVolume = &volume

	eng := engine.New(opts)
	defer eng.Destroy()

	// One entry per finished track: End on natural completion, the
	// error channels otherwise.
	trackDone := make(chan event.Channel, 1)
	finish := func(ch event.Channel) event.Callback {
		return func(event.Event) {
			select {
			case trackDone <- ch:
			default:
			}
		}
	}
	eng.Subscribe(event.End, finish(event.End))
	eng.Subscribe(event.LoadError, finish(event.LoadError))
	eng.Subscribe(event.PlayError, finish(event.PlayError))

	eng.Subscribe(event.Load, func(e event.Event) {
		fmt.Printf("%s (%s)\n", e.SourceRef, formatDuration(e.Duration))
	})
	eng.Subscribe(event.TimeUpdate, func(e event.Event) {
		fmt.Printf("\r  %s / %s ", formatDuration(e.Position), formatDuration(e.Duration))
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	var failed int
	for _, f := range files {
		eng.Load(f, true, format)
		select {
		case ch := <-trackDone:
			fmt.Println()
			if ch != event.End {
				log.WithField("file", f).Error("playback failed")
				failed++
			}
		case <-sig:
			fmt.Println()
			return nil
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
