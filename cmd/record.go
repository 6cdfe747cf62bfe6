package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"panson/infrastructure/capture"

	"github.com/spf13/cobra"
)

var (
	recordDevice   int
	recordPrefix   string
	recordDuration time.Duration
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record session video from a camera",
	Long: `Record raw video from a camera device into the recordings directory,
together with a frame-timestamp CSV for later alignment with feature
data. Recording runs until Ctrl-C or the optional duration elapses.

Output files are numbered automatically, so repeated takes never
overwrite each other.

Requires a build with '-tags=capture' and OpenCV installed.

Examples:
  panson record
  panson record --device 1 --prefix warmup --duration 30s`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().IntVar(&recordDevice, "device", 0, "Camera device index")
	recordCmd.Flags().StringVar(&recordPrefix, "prefix", "", "Output file prefix (defaults to today's date)")
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 0, "Stop automatically after this duration")
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	prefix := recordPrefix
	if prefix == "" {
		prefix = time.Now().Format("2006-01-02")
	}
	prefix = filepath.Join(cfg.Paths.RecordingsDirectory(), prefix)

	if err := os.MkdirAll(cfg.Paths.RecordingsDirectory(), 0755); err != nil {
		return fmt.Errorf("failed to create recordings directory: %w", err)
	}

	recorder, err := capture.NewRecorder(recordDevice, capture.WithFilePrefix(prefix))
	if err != nil {
		return err
	}
	defer recorder.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start, err := recorder.Record()
	if err != nil {
		return err
	}
	fmt.Printf("Recording from device %d, Ctrl-C to stop...\n", recordDevice)

	if recordDuration > 0 {
		select {
		case <-time.After(recordDuration):
		case <-ctx.Done():
		}
	} else {
		<-ctx.Done()
	}

	if err := recorder.Stop(); err != nil {
		return err
	}

	fmt.Printf("Recorded %s of video\n", time.Since(start).Round(time.Second))
	return nil
}
