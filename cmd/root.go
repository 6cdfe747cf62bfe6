package cmd

import (
	"fmt"
	"io"
	"os"

	"panson/infrastructure/config"
	"panson/pkg/log"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	io.Writer
}

var rootCmd = &cobra.Command{
	Use:   "panson",
	Short: "Sonify facial feature data through SuperCollider",
	Long: `panson turns facial feature data into sound:

  - Extract features from recorded or live video with OpenFace
  - Play feature recordings through a sonification preset
  - Listen to live feature streams, merging multiple sources
  - Render sonifications offline and share them via Google Drive

Example:
  panson process --preset au-bells --to thomas`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.panson/config.yaml)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultConfigPath()
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		// Config file is optional for some commands (like help)
		// Commands that need config will check and error appropriately
		cfg = nil
		return
	}

	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	if err := log.Configure(level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
	}
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}
