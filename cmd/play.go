package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"panson/application/playback"
	"panson/infrastructure/config"
	"panson/infrastructure/featurecsv"
	"panson/infrastructure/scserver"

	"github.com/spf13/cobra"
)

var (
	playFeatures   string
	playPreset     string
	playFPS        float64
	playTimeColumn string
	playRate       float64
	playStart      float64
	playRecord     string
	playOverwrite  bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a feature recording through the sound server",
	Long: `Sonify a feature CSV in real time on a running scsynth. Playback runs
to the end of the recording; Ctrl-C stops it early.

Examples:
  panson play --features data/features/session.csv --preset au-bells
  panson play --features session.csv --preset au-bells --rate 0.5 --start 12.5
  panson play --features session.csv --preset au-bells --record take.wav`,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().StringVar(&playFeatures, "features", "", "Feature CSV to play (required)")
	playCmd.Flags().StringVar(&playPreset, "preset", "", "Sonification preset config key (required)")
	playCmd.Flags().Float64Var(&playFPS, "fps", 0, "Fixed frame rate (0 uses the timestamp column)")
	playCmd.Flags().StringVar(&playTimeColumn, "time-column", "", "Timestamp column name (default \"timestamp\")")
	playCmd.Flags().Float64Var(&playRate, "rate", 1, "Playback rate (negative plays backwards)")
	playCmd.Flags().Float64Var(&playStart, "start", 0, "Start position in seconds")
	playCmd.Flags().StringVar(&playRecord, "record", "", "Record the server output to this sound file")
	playCmd.Flags().BoolVar(&playOverwrite, "overwrite", false, "Overwrite an existing record file")

	playCmd.MarkFlagRequired("features")
	playCmd.MarkFlagRequired("preset")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	mgr := config.NewConfigManager(cfg, cfgFile)
	preset, err := mgr.GetPreset(playPreset)
	if err != nil {
		return fmt.Errorf("preset '%s' not found in config\n\nTo fix this, run:\n  %s",
			playPreset, config.SuggestAddPresetCommand(playPreset))
	}
	son, err := preset.Sonification()
	if err != nil {
		return err
	}

	rec, err := featurecsv.LoadRecording(playFeatures, playFPS, playTimeColumn)
	if err != nil {
		return err
	}

	client := scserver.NewClient(cfg.SoundServer.Host, cfg.SoundServer.Port)
	player := playback.NewPlayer(client, son,
		playback.WithRecorder(scserver.NewRecorder(client)))

	if err := player.Load(rec); err != nil {
		return err
	}
	if playRate != 1 {
		if err := player.SetRate(playRate); err != nil {
			return err
		}
	}
	if playStart != 0 {
		if err := player.SeekTime(playStart); err != nil {
			return err
		}
	}

	if playRecord != "" {
		if err := player.RecordStart(playRecord, playOverwrite); err != nil {
			return err
		}
		defer player.RecordStop()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Printf("Playing %s (%d frames, rate %g)...\n", playFeatures, rec.Len(), player.Rate())
	if err := player.Play(); err != nil {
		return err
	}

	if err := waitForPlayback(ctx, player); err != nil {
		return err
	}

	fmt.Println("Done.")
	return nil
}

// waitForPlayback blocks until playback ends or ctx is cancelled, in which
// case the player is paused
func waitForPlayback(ctx context.Context, player *playback.Player) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !player.Playing() {
				return nil
			}
		case <-ctx.Done():
			fmt.Println("\nStopping playback...")
			return player.Pause()
		}
	}
}
