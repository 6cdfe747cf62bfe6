package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	appexp "panson/application/export"
	"panson/domain/feature"
	"panson/domain/render"
	"panson/domain/sonification"
	"panson/infrastructure/config"
	"panson/infrastructure/featurecsv"
	"panson/infrastructure/scserver"

	"github.com/spf13/cobra"
)

var (
	exportFeatures   string
	exportPreset     string
	exportOutput     string
	exportRate       float64
	exportFPS        float64
	exportTimeColumn string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a feature recording to a sound file",
	Long: `Render a sonification of a feature CSV offline, without a running sound
server. The score is played through scsynth in non-realtime mode.

Frame timing comes from the CSV's timestamp column by default; pass --fps
to derive it from a fixed frame rate instead.

Examples:
  panson export --features data/features/session.csv --preset au-bells --output renders/session
  panson export --features take.csv --preset au-bells --output take --rate 2 --fps 30`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFeatures, "features", "", "Feature CSV to render (required)")
	exportCmd.Flags().StringVar(&exportPreset, "preset", "", "Sonification preset config key (required)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Output path without extension (required)")
	exportCmd.Flags().Float64Var(&exportRate, "rate", 1, "Playback rate of the rendering")
	exportCmd.Flags().Float64Var(&exportFPS, "fps", 0, "Fixed frame rate (0 uses the timestamp column)")
	exportCmd.Flags().StringVar(&exportTimeColumn, "time-column", "", "Timestamp column name (default \"timestamp\")")

	exportCmd.MarkFlagRequired("features")
	exportCmd.MarkFlagRequired("preset")
	exportCmd.MarkFlagRequired("output")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	mgr := config.NewConfigManager(cfg, cfgFile)
	preset, err := mgr.GetPreset(exportPreset)
	if err != nil {
		return fmt.Errorf("preset '%s' not found in config\n\nTo fix this, run:\n  %s",
			exportPreset, config.SuggestAddPresetCommand(exportPreset))
	}
	son, err := preset.Sonification()
	if err != nil {
		return err
	}

	rec, err := featurecsv.LoadRecording(exportFeatures, exportFPS, exportTimeColumn)
	if err != nil {
		return err
	}

	req := render.NewRequest(exportOutput)
	req.Rate = exportRate
	if cfg.Render.SampleRate > 0 {
		req.SampleRate = cfg.Render.SampleRate
	}
	if cfg.Render.HeaderFormat != "" {
		req.HeaderFormat = cfg.Render.HeaderFormat
	}
	if cfg.Render.SampleFormat != "" {
		req.SampleFormat = cfg.Render.SampleFormat
	}
	if cfg.Render.EndDelay > 0 {
		req.EndDelay = cfg.Render.EndDelay
	}

	service := appexp.NewService(scserver.NewScoreWriter(),
		scserver.NewRenderer(scserver.WithScsynthPath(cfg.SoundServer.ScsynthPath)))

	return RunExportWithDependencies(cmd.Context(), service, rec, son, req, os.Stdout)
}

// RunExportWithDependencies runs the export command with injected dependencies (for testing)
func RunExportWithDependencies(
	ctx context.Context,
	service *appexp.Service,
	rec *feature.Recording,
	son sonification.Sonification,
	req *render.Request,
	output io.Writer,
) error {
	fmt.Fprintf(output, "Rendering %d frames...\n", rec.Len())

	outFile, err := service.Export(ctx, rec, son, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Created: %s\n", outFile)
	return nil
}
