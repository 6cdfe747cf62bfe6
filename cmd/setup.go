package cmd

import (
	"fmt"
	"os"
	"strconv"

	"panson/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates the config file.

This command guides you through setting up data directories, the sound
server, the extraction container, Google Drive settings and email
recipients. Sonification presets are added afterwards with
'panson config add preset'.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return RunSetupWithPrompter(DefaultPrompter, path)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("Config file already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	fmt.Println("Welcome to panson setup!")
	fmt.Println()

	cfg := config.Default()

	if err := promptPaths(prompter, cfg); err != nil {
		return err
	}

	if err := promptSoundServer(prompter, cfg); err != nil {
		return err
	}

	if err := promptOpenFace(prompter, cfg); err != nil {
		return err
	}

	if err := promptGoogle(prompter, cfg); err != nil {
		return err
	}

	if err := promptEmail(prompter, cfg); err != nil {
		return err
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", configPath)
	fmt.Println("Add a sonification preset next:")
	fmt.Printf("  %s\n", config.SuggestAddPresetCommand("my-preset"))
	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	data, err := prompter.Input("Data directory (mounted into the extraction container)?", cfg.Paths.DataDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if data == "" {
		return fmt.Errorf("data directory is required")
	}
	cfg.Paths.DataDirectory = data

	renders, err := prompter.Input("Where should rendered sound files go?", cfg.Paths.RendersDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if renders == "" {
		return fmt.Errorf("renders directory is required")
	}
	cfg.Paths.RendersDirectory = renders

	return nil
}

func promptSoundServer(prompter Prompter, cfg *config.Config) error {
	host, err := prompter.Input("Sound server host?", cfg.SoundServer.Host)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if host != "" {
		cfg.SoundServer.Host = host
	}

	portStr, err := prompter.Input("Sound server port?", strconv.Itoa(cfg.SoundServer.Port))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return fmt.Errorf("invalid port %q", portStr)
		}
		cfg.SoundServer.Port = port
	}

	scsynth, err := prompter.Input("Path to the scsynth executable?", cfg.SoundServer.ScsynthPath)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if scsynth != "" {
		cfg.SoundServer.ScsynthPath = scsynth
	}

	return nil
}

func promptOpenFace(prompter Prompter, cfg *config.Config) error {
	docker, err := prompter.Input("Path to the docker executable?", cfg.OpenFace.DockerPath)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if docker != "" {
		cfg.OpenFace.DockerPath = docker
	}

	image, err := prompter.Input("Extraction container image?", cfg.OpenFace.Image)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if image != "" {
		cfg.OpenFace.Image = image
	}

	camera, err := prompter.Input("Camera device for live extraction?", cfg.OpenFace.CameraDevice)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if camera != "" {
		cfg.OpenFace.CameraDevice = camera
	}

	return nil
}

func promptGoogle(prompter Prompter, cfg *config.Config) error {
	credentials, err := prompter.Input("Path to Google credentials file?", "credentials.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials == "" {
		credentials = "credentials.json"
	}
	cfg.Google.CredentialsFile = credentials

	token, err := prompter.Input("Path to store the OAuth token?", "token.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if token == "" {
		token = "token.json"
	}
	cfg.Google.TokenFile = token

	folder, err := prompter.Input("Google Drive folder ID for renders?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if folder == "" {
		return fmt.Errorf("folder ID is required")
	}
	cfg.Google.RendersFolderID = folder

	return nil
}

func promptEmail(prompter Prompter, cfg *config.Config) error {
	fromName, err := prompter.Input("Display name for outgoing emails?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if fromName == "" {
		return fmt.Errorf("from name is required")
	}
	cfg.Email.FromName = fromName

	fromAddress, err := prompter.Input("Gmail address to send from?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if fromAddress == "" {
		return fmt.Errorf("from address is required")
	}
	cfg.Email.FromAddress = fromAddress

	// Default CC recipients
	cfg.Email.DefaultCC = []config.RecipientConfig{}
	for {
		addCC, err := prompter.Confirm("Add a CC recipient?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !addCC {
			break
		}

		recipient, err := promptRecipientWithPrompter(prompter)
		if err != nil {
			return err
		}
		cfg.Email.DefaultCC = append(cfg.Email.DefaultCC, recipient)
	}

	// Quick-lookup recipients
	cfg.Email.Recipients = make(map[string]config.RecipientConfig)
	for {
		addRecipient, err := prompter.Confirm("Add a quick-lookup recipient?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !addRecipient {
			break
		}

		nickname, err := prompter.Input("  Nickname:", "")
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if nickname == "" {
			return fmt.Errorf("nickname is required")
		}

		recipient, err := promptRecipientWithPrompter(prompter)
		if err != nil {
			return err
		}
		cfg.Email.Recipients[nickname] = recipient
	}

	return nil
}

func promptRecipientWithPrompter(prompter Prompter) (config.RecipientConfig, error) {
	name, err := prompter.Input("  Full name:", "")
	if err != nil {
		return config.RecipientConfig{}, fmt.Errorf("prompt cancelled")
	}
	if name == "" {
		return config.RecipientConfig{}, fmt.Errorf("name is required")
	}

	address, err := prompter.Input("  Email:", "")
	if err != nil {
		return config.RecipientConfig{}, fmt.Errorf("prompt cancelled")
	}
	if address == "" {
		return config.RecipientConfig{}, fmt.Errorf("email is required")
	}

	return config.RecipientConfig{
		Name:    name,
		Address: address,
	}, nil
}
