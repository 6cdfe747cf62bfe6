package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Paths       PathsConfig             `yaml:"paths"`
	SoundServer SoundServerConfig       `yaml:"sound_server"`
	OpenFace    OpenFaceConfig          `yaml:"openface"`
	Render      RenderConfig            `yaml:"render"`
	Google      GoogleConfig            `yaml:"google"`
	Email       EmailConfig             `yaml:"email"`
	Senders     SendersConfig           `yaml:"senders"`
	Presets     map[string]PresetConfig `yaml:"presets"`
	Logging     LoggingConfig           `yaml:"logging"`
}

// PathsConfig contains the data directories. DataDirectory is mounted into
// the extraction container, so recordings and features must live under it.
type PathsConfig struct {
	DataDirectory    string `yaml:"data_directory"`
	RecordingsSubdir string `yaml:"recordings_subdir"`
	FeaturesSubdir   string `yaml:"features_subdir"`
	RendersDirectory string `yaml:"renders_directory"`
}

// RecordingsDirectory returns the directory session videos are stored in
func (p PathsConfig) RecordingsDirectory() string {
	return filepath.Join(p.DataDirectory, p.RecordingsSubdir)
}

// FeaturesDirectory returns the directory extracted feature CSVs land in
func (p PathsConfig) FeaturesDirectory() string {
	return filepath.Join(p.DataDirectory, p.FeaturesSubdir)
}

// SoundServerConfig contains the scsynth connection settings
type SoundServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	ScsynthPath string `yaml:"scsynth_path"`
}

// OpenFaceConfig contains the extraction container settings
type OpenFaceConfig struct {
	DockerPath    string `yaml:"docker_path"`
	ContainerName string `yaml:"container_name"`
	Image         string `yaml:"image"`
	BinaryPath    string `yaml:"binary_path"`
	CameraDevice  string `yaml:"camera_device"`
}

// RenderConfig contains non-realtime rendering settings
type RenderConfig struct {
	SampleRate   int     `yaml:"sample_rate"`
	HeaderFormat string  `yaml:"header_format"`
	SampleFormat string  `yaml:"sample_format"`
	EndDelay     float64 `yaml:"end_delay"`
}

// GoogleConfig contains Google API settings
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	RendersFolderID string `yaml:"renders_folder_id"`
}

// EmailConfig contains email notification settings
type EmailConfig struct {
	ProjectName string                     `yaml:"project_name"`
	FromName    string                     `yaml:"from_name"`
	FromAddress string                     `yaml:"from_address"`
	DefaultCC   []RecipientConfig          `yaml:"default_cc"`
	Recipients  map[string]RecipientConfig `yaml:"recipients"`
}

// RecipientConfig represents an email recipient
type RecipientConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// SendersConfig contains the people who sign outgoing emails
type SendersConfig struct {
	DefaultSender string                  `yaml:"default_sender"`
	Senders       map[string]SenderConfig `yaml:"senders"`
}

// SenderConfig represents a sender entry
type SenderConfig struct {
	Name string `yaml:"name"`
}

// PresetConfig is a named sonification: a synthdef and the feature-column
// to synth-control mappings that drive it
type PresetConfig struct {
	SynthDef     string          `yaml:"synthdef"`
	SynthDefFile string          `yaml:"synthdef_file"`
	NodeID       int32           `yaml:"node_id"`
	Mappings     []MappingConfig `yaml:"mappings"`
}

// MappingConfig links a feature column to a synth control with linear scaling
type MappingConfig struct {
	Column  string  `yaml:"column"`
	Control string  `yaml:"control"`
	InMin   float64 `yaml:"in_min"`
	InMax   float64 `yaml:"in_max"`
	OutMin  float64 `yaml:"out_min"`
	OutMax  float64 `yaml:"out_max"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfigPath returns the standard config file location
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".panson", "config.yaml")
}

// Default returns a configuration with working defaults for a local setup
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDirectory:    "data",
			RecordingsSubdir: "recordings",
			FeaturesSubdir:   "features",
			RendersDirectory: "renders",
		},
		SoundServer: SoundServerConfig{
			Host:        "127.0.0.1",
			Port:        57110,
			ScsynthPath: "scsynth",
		},
		OpenFace: OpenFaceConfig{
			DockerPath:    "docker",
			ContainerName: "openface",
			Image:         "algebr/openface:latest",
			BinaryPath:    "/home/openface-build/build/bin/FeatureExtraction",
			CameraDevice:  "/dev/video0",
		},
		Render: RenderConfig{
			SampleRate:   44100,
			HeaderFormat: "AIFF",
			SampleFormat: "int16",
			EndDelay:     0.1,
		},
		Email: EmailConfig{
			ProjectName: "panson",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads and parses the configuration from the specified YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
