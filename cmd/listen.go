package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"panson/application/live"
	"panson/domain/extraction"
	"panson/domain/feature"
	"panson/domain/sonification"
	"panson/infrastructure/config"
	"panson/infrastructure/featurecsv"
	"panson/infrastructure/scserver"
	"panson/infrastructure/stream"

	"github.com/spf13/cobra"
)

var (
	listenPreset    string
	listenDevice    int
	listenFPS       float64
	listenOutput    string
	listenLog       string
	listenOverwrite bool
	listenStreams   []string
	listenPose      bool
	listenGaze      bool
	listenAUs       bool
	listenTimestamp bool
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Sonify a live feature stream",
	Long: `Sonify features as they arrive, until interrupted with Ctrl-C.

By default the extraction container reads the configured camera and the
fresh feature rows are played through the preset. With --stream flags the
extractor is not started; instead the named CSV files are followed and
their rows merged into one frame, so several feature sources can drive a
single sonification.

Examples:
  panson listen --preset au-bells
  panson listen --preset au-bells --device 1 --log data/features/live-log.csv
  panson listen --preset duet --stream face:face.csv:30 --stream pose:pose.csv:60`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().StringVar(&listenPreset, "preset", "", "Sonification preset config key (required)")
	listenCmd.Flags().IntVar(&listenDevice, "device", 0, "Camera device index")
	listenCmd.Flags().Float64Var(&listenFPS, "fps", 30, "Nominal frame rate of the stream (merge tick rate with --stream)")
	listenCmd.Flags().StringVar(&listenOutput, "output", "", "Live feature CSV path (defaults to a timestamped file in the features directory)")
	listenCmd.Flags().StringVar(&listenLog, "log", "", "Log sonified frames to this CSV")
	listenCmd.Flags().BoolVar(&listenOverwrite, "overwrite", false, "Overwrite an existing log file")
	listenCmd.Flags().StringArrayVar(&listenStreams, "stream", nil, "Follow a CSV instead of the camera, as name:path[:fps] (repeatable)")
	listenCmd.Flags().BoolVar(&listenPose, "pose", true, "Extract head pose features")
	listenCmd.Flags().BoolVar(&listenGaze, "gaze", true, "Extract gaze features")
	listenCmd.Flags().BoolVar(&listenAUs, "aus", true, "Extract action unit features")
	listenCmd.Flags().BoolVar(&listenTimestamp, "timestamp", false, "Append an arrival-time column to frames without one")

	listenCmd.MarkFlagRequired("preset")
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	mgr := config.NewConfigManager(cfg, cfgFile)
	preset, err := mgr.GetPreset(listenPreset)
	if err != nil {
		return fmt.Errorf("preset '%s' not found in config\n\nTo fix this, run:\n  %s",
			listenPreset, config.SuggestAddPresetCommand(listenPreset))
	}
	son, err := preset.Sonification()
	if err != nil {
		return err
	}

	client := scserver.NewClient(cfg.SoundServer.Host, cfg.SoundServer.Port)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if len(listenStreams) > 0 {
		return listenMulti(ctx, client, son)
	}
	return listenCamera(ctx, cfg, client, son)
}

// listenCamera runs the realtime extractor against the configured camera
// and sonifies its output as it grows
func listenCamera(ctx context.Context, cfg *config.Config, client *scserver.Client, son sonification.Sonification) error {
	csvPath := listenOutput
	if csvPath == "" {
		name := fmt.Sprintf("live-%s.csv", time.Now().Format("20060102-150405"))
		csvPath = filepath.Join(cfg.Paths.FeaturesDirectory(), name)
	}

	service := newExtractionService(cfg)
	extractErr := make(chan error, 1)
	go func() {
		extractErr <- service.ExtractRealtime(ctx, &extraction.RealtimeRequest{
			Device: listenDevice,
			Features: extraction.FeatureSet{
				Pose:        listenPose,
				Gaze:        listenGaze,
				ActionUnits: listenAUs,
			},
			OutputCSV: csvPath,
		})
	}()

	tail := stream.NewTail("camera", csvPath, listenFPS)

	var opts []live.PlayerOption
	var logger feature.FrameLogger
	if listenLog != "" {
		logger = featurecsv.NewLogger()
		opts = append(opts, live.WithLogger(logger))
	}
	if listenTimestamp {
		opts = append(opts, live.WithTimestamp())
	}

	player := live.NewPlayer(client, son, tail, opts...)
	if err := player.Listen(ctx); err != nil {
		return err
	}

	if listenLog != "" {
		if err := player.LogStart(listenLog, listenOverwrite); err != nil {
			player.Close()
			return err
		}
		defer player.LogStop()
	}

	fmt.Printf("Listening on device %d (features: %s), Ctrl-C to stop...\n",
		listenDevice, extraction.FeatureSet{Pose: listenPose, Gaze: listenGaze, ActionUnits: listenAUs})

	<-ctx.Done()
	if err := player.Close(); err != nil {
		return err
	}
	return <-extractErr
}

// listenMulti follows the given CSV files and sonifies their merged frames
func listenMulti(ctx context.Context, client *scserver.Client, son sonification.Sonification) error {
	if listenLog != "" {
		return fmt.Errorf("--log is not supported with --stream; log individual streams instead")
	}

	streams := make([]feature.Stream, 0, len(listenStreams))
	for _, spec := range listenStreams {
		s, err := parseStreamSpec(spec)
		if err != nil {
			return err
		}
		streams = append(streams, s)
	}

	var opts []live.MultiPlayerOption
	if listenFPS > 0 {
		opts = append(opts, live.WithFPS(listenFPS))
	}

	player, err := live.NewMultiPlayer(client, son, streams, opts...)
	if err != nil {
		return err
	}
	if err := player.Listen(ctx); err != nil {
		return err
	}

	fmt.Printf("Merging %d streams at %g fps, Ctrl-C to stop...\n", len(streams), player.FPS())

	<-ctx.Done()
	return player.Close()
}

// parseStreamSpec parses a name:path[:fps] stream flag
func parseStreamSpec(spec string) (feature.Stream, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return nil, fmt.Errorf("invalid stream %q: expected name:path[:fps]", spec)
	}

	name := strings.TrimSpace(parts[0])
	path := strings.TrimSpace(parts[1])
	if name == "" || path == "" {
		return nil, fmt.Errorf("invalid stream %q: name and path are required", spec)
	}

	fps := 0.0
	if len(parts) == 3 {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid stream %q: bad fps %q", spec, parts[2])
		}
		fps = v
	}

	return stream.NewTail(name, path, fps), nil
}
