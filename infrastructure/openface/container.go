package openface

import (
	"context"
	"fmt"
	"strings"

	"panson/domain/extraction"
	"panson/infrastructure/command"
	"panson/pkg/log"
)

const (
	// DefaultContainerName is the name the extraction container runs under
	DefaultContainerName = "openface"

	// DefaultImage is the published OpenFace container image
	DefaultImage = "algebr/openface:latest"

	// DefaultBinaryPath is where the image ships the extraction executable
	DefaultBinaryPath = "/home/openface-build/build/bin/FeatureExtraction"

	// DefaultContainerDataDir is the data mount point inside the container
	DefaultContainerDataDir = "/data"
)

// Manager controls the OpenFace container through the docker CLI
type Manager struct {
	dockerPath    string
	containerName string
	image         string
	binaryPath    string
	hostDataDir   string
	cameraDevice  string
	runner        command.Runner
}

// ManagerOption is a functional option for configuring Manager
type ManagerOption func(*Manager)

// WithDockerPath sets a custom docker executable path. Empty keeps the
// default, so sparse config files do not wipe it.
func WithDockerPath(path string) ManagerOption {
	return func(m *Manager) {
		if path != "" {
			m.dockerPath = path
		}
	}
}

// WithContainerName sets the container name to manage. Empty keeps the
// default.
func WithContainerName(name string) ManagerOption {
	return func(m *Manager) {
		if name != "" {
			m.containerName = name
		}
	}
}

// WithImage sets the container image used when the container must be
// created. Empty keeps the default.
func WithImage(image string) ManagerOption {
	return func(m *Manager) {
		if image != "" {
			m.image = image
		}
	}
}

// WithBinaryPath sets the extraction executable path inside the
// container. Empty keeps the default.
func WithBinaryPath(path string) ManagerOption {
	return func(m *Manager) {
		if path != "" {
			m.binaryPath = path
		}
	}
}

// WithCameraDevice sets the host camera device passed into the
// container. Empty keeps the default.
func WithCameraDevice(device string) ManagerOption {
	return func(m *Manager) {
		if device != "" {
			m.cameraDevice = device
		}
	}
}

// WithManagerRunner sets a custom command runner (for testing)
func WithManagerRunner(runner command.Runner) ManagerOption {
	return func(m *Manager) {
		m.runner = runner
	}
}

// NewManager creates a docker-based container manager. hostDataDir is the
// directory mounted into the container at /data; videos to process and CSV
// outputs must live under it.
func NewManager(hostDataDir string, opts ...ManagerOption) *Manager {
	m := &Manager{
		dockerPath:    "docker",
		containerName: DefaultContainerName,
		image:         DefaultImage,
		binaryPath:    DefaultBinaryPath,
		hostDataDir:   hostDataDir,
		cameraDevice:  "/dev/video0",
		runner:        &command.ExecRunner{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// EnsureRunning implements extraction.ContainerManager. It starts the
// container detached if it exists but is stopped, and creates it if it does
// not exist yet.
func (m *Manager) EnsureRunning(ctx context.Context) error {
	out, err := m.runner.Output(ctx, m.dockerPath,
		"inspect", "-f", "{{.State.Running}}", m.containerName)
	if err != nil {
		// Container does not exist yet
		return m.create(ctx)
	}

	if strings.TrimSpace(string(out)) == "true" {
		return nil
	}

	log.Logger().WithField("container", m.containerName).Info("Starting extraction container")
	if err := m.runner.Run(ctx, m.dockerPath, "start", m.containerName); err != nil {
		return fmt.Errorf("failed to start container %s: %w", m.containerName, err)
	}
	return nil
}

func (m *Manager) create(ctx context.Context) error {
	log.Logger().WithFields(log.Fields{
		"container": m.containerName,
		"image":     m.image,
	}).Info("Creating extraction container")

	args := []string{
		"run", "-d",
		"--name", m.containerName,
		"--device", m.cameraDevice,
		"-v", m.hostDataDir + ":" + DefaultContainerDataDir,
		m.image,
		"tail", "-f", "/dev/null", // keep the container alive for exec
	}

	if err := m.runner.Run(ctx, m.dockerPath, args...); err != nil {
		return fmt.Errorf("failed to create container %s from %s: %w", m.containerName, m.image, err)
	}
	return nil
}

// Verify implements extraction.ContainerManager. It checks that the
// extraction executable is present and executable inside the container.
func (m *Manager) Verify(ctx context.Context) error {
	err := m.runner.Run(ctx, m.dockerPath,
		"exec", m.containerName, "test", "-x", m.binaryPath)
	if err != nil {
		return fmt.Errorf("extractor executable %s not found in container %s: %w",
			m.binaryPath, m.containerName, err)
	}
	return nil
}

// VerifyDockerInstalled checks that the docker CLI is available
func (m *Manager) VerifyDockerInstalled(ctx context.Context) error {
	_, err := m.runner.Output(ctx, m.dockerPath, "version", "--format", "{{.Client.Version}}")
	if err != nil {
		return fmt.Errorf("docker not found or not executable: %w", err)
	}
	return nil
}

// Ensure Manager implements extraction.ContainerManager
var _ extraction.ContainerManager = (*Manager)(nil)
