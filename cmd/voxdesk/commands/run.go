package commands

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voxdesk/voxdesk/pkg/audio"
	"github.com/voxdesk/voxdesk/pkg/converse"
	"github.com/voxdesk/voxdesk/pkg/dispatch"
	"github.com/voxdesk/voxdesk/pkg/extern"
	"github.com/voxdesk/voxdesk/pkg/feed"
	"github.com/voxdesk/voxdesk/pkg/live"
	"github.com/voxdesk/voxdesk/pkg/organizer"
)

var runFlags struct {
	summaryFile string
	ephemeral   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the voice assistant",
	Long: `Start the voice assistant.

The microphone is captured with ffmpeg and replies play through ffplay, so
both must be on PATH. Press Enter to start or stop the conversation, and
Ctrl-C to quit. UI clients can follow highlights, transcripts and session
state on the websocket feed address.`,
	RunE: runAssistant,
}

func init() {
	runCmd.Flags().StringVar(&runFlags.summaryFile, "summary-file", "",
		"start with a spoken summary of this file's contents")
	runCmd.Flags().BoolVar(&runFlags.ephemeral, "ephemeral", false,
		"do not persist organizer state")
	rootCmd.AddCommand(runCmd)
}

// newDispatcher wires the organizer with its collaborators. Calendar, mail
// and contacts run on the in-memory implementations until real accounts can
// be linked, so every operation stays reachable.
func newDispatcher(org *organizer.Organizer, defaultLocation string, hub *feed.Hub) *dispatch.Dispatcher {
	return dispatch.New(org,
		dispatch.WithCalendar(&extern.StaticCalendar{}),
		dispatch.WithMail(&extern.StaticMail{}),
		dispatch.WithContacts(&extern.StaticContacts{}),
		dispatch.WithWeather(&extern.OpenMeteoWeather{DefaultLocation: defaultLocation}),
		dispatch.WithOnHighlight(hub.Highlight),
	)
}

func runAssistant(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	if cfg.Settings.APIKey == "" {
		return fmt.Errorf("no API key configured; run 'voxdesk config set api_key YOUR_KEY'")
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Organizer, optionally persistent.
	var orgOpts []organizer.Option
	if !runFlags.ephemeral {
		store, err := organizer.OpenStore(organizer.StoreOptions{Dir: cfg.Settings.DataDir})
		if err != nil {
			return fmt.Errorf("open organizer store: %w", err)
		}
		defer store.Close()
		orgOpts = append(orgOpts, organizer.WithStore(store))
	}
	org := organizer.New(orgOpts...)

	// UI event feed.
	hub := feed.NewHub(logger)
	defer hub.Close()
	feedSrv := &http.Server{Addr: cfg.Settings.FeedAddr, Handler: hub}
	go func() {
		if err := feedSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("run: feed server", "error", err)
		}
	}()
	defer feedSrv.Close()

	disp := newDispatcher(org, cfg.Settings.DefaultLocation, hub)

	// Audio endpoints.
	sink := &audio.FFplaySink{SampleRate: audio.OutputSampleRate}
	if err := sink.Start(ctx); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	defer sink.Close()
	playback := audio.NewPlayback(sink, audio.OutputSampleRate,
		audio.WithOnSpeaking(hub.Speaking))
	defer playback.Close()
	capture := &audio.FFmpegCapture{
		Device:     cfg.Settings.MicDevice,
		SampleRate: audio.InputSampleRate,
	}

	liveCfg := &live.Config{
		APIKey: cfg.Settings.APIKey,
		Model:  cfg.Settings.Model,
		Voice:  cfg.Settings.Voice,
	}
	orch := converse.New(org, disp, liveCfg, capture, playback,
		converse.WithPublisher(hub),
		converse.WithLogger(logger),
	)
	defer orch.Session().Stop()

	if runFlags.summaryFile != "" {
		content, err := os.ReadFile(runFlags.summaryFile)
		if err != nil {
			return fmt.Errorf("read summary file: %w", err)
		}
		if err := orch.StartSummarySession(ctx, string(content)); err != nil {
			return fmt.Errorf("start summary session: %w", err)
		}
	}

	fmt.Println("voxdesk ready. Press Enter to toggle the conversation, Ctrl-C to quit.")
	fmt.Printf("UI feed: ws://%s\n", cfg.Settings.FeedAddr)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nShutting down.")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch line {
			case "", "t":
				if err := orch.Toggle(ctx); err != nil {
					logger.Error("run: toggle", "error", err)
				} else if orch.Session().State() == live.StateListening {
					fmt.Println("Listening. Press Enter to stop.")
				} else {
					fmt.Println("Stopped. Press Enter to talk again.")
				}
			case "q", "quit", "exit":
				return nil
			default:
				fmt.Println("Enter toggles the conversation; q quits.")
			}
		}
	}
}
