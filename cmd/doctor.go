package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"panson/infrastructure/openface"
	"panson/infrastructure/scserver"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the toolchain is ready",
	Long: `Verify the external tools panson depends on: the docker CLI, the
extraction container and its executable, and scsynth for rendering.

Example:
  panson doctor`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// healthCheck is one named verification of an external dependency
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	manager := openface.NewManager(cfg.Paths.DataDirectory,
		openface.WithDockerPath(cfg.OpenFace.DockerPath),
		openface.WithContainerName(cfg.OpenFace.ContainerName),
		openface.WithImage(cfg.OpenFace.Image),
		openface.WithBinaryPath(cfg.OpenFace.BinaryPath),
		openface.WithCameraDevice(cfg.OpenFace.CameraDevice),
	)
	renderer := scserver.NewRenderer(scserver.WithScsynthPath(cfg.SoundServer.ScsynthPath))

	checks := []healthCheck{
		{"docker CLI", manager.VerifyDockerInstalled},
		{"extraction container", manager.EnsureRunning},
		{"extraction executable", manager.Verify},
		{"scsynth", renderer.VerifyInstalled},
	}

	return RunDoctorWithDependencies(cmd.Context(), checks, os.Stdout)
}

// RunDoctorWithDependencies runs the given checks, reporting each result (for testing)
func RunDoctorWithDependencies(ctx context.Context, checks []healthCheck, output io.Writer) error {
	failed := 0
	for _, c := range checks {
		if err := c.check(ctx); err != nil {
			fmt.Fprintf(output, "FAIL  %s: %v\n", c.name, err)
			failed++
			continue
		}
		fmt.Fprintf(output, "ok    %s\n", c.name)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	fmt.Fprintln(output, "All checks passed.")
	return nil
}
