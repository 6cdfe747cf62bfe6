package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"panson/infrastructure/config"
)

// fakePrompter replays scripted answers in order
type fakePrompter struct {
	t        *testing.T
	inputs   []string
	confirms []bool
}

func (p *fakePrompter) Input(message string, defaultValue string) (string, error) {
	if len(p.inputs) == 0 {
		p.t.Fatalf("unexpected input prompt %q", message)
	}
	answer := p.inputs[0]
	p.inputs = p.inputs[1:]
	if answer == "" {
		return defaultValue, nil
	}
	return answer, nil
}

func (p *fakePrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if len(p.confirms) == 0 {
		p.t.Fatalf("unexpected confirm prompt %q", message)
	}
	answer := p.confirms[0]
	p.confirms = p.confirms[1:]
	return answer, nil
}

func TestRunSetupWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	prompter := &fakePrompter{
		t: t,
		inputs: []string{
			"/srv/panson/data", // data directory
			"/srv/panson/renders",
			"", // sound server host (default)
			"", // port (default)
			"", // scsynth path (default)
			"", // docker path (default)
			"", // image (default)
			"", // camera device (default)
			"cred.json",
			"tok.json",
			"folder123",
			"Panson Lab",
			"lab@example.com",
			"thomas", // recipient nickname
			"Thomas Hermann",
			"thomas@example.com",
		},
		confirms: []bool{
			false, // add CC?
			true,  // add recipient?
			false, // add another recipient?
		},
	}

	if err := RunSetupWithPrompter(prompter, path); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Paths.DataDirectory != "/srv/panson/data" {
		t.Errorf("data directory = %q", cfg.Paths.DataDirectory)
	}
	if cfg.Paths.RendersDirectory != "/srv/panson/renders" {
		t.Errorf("renders directory = %q", cfg.Paths.RendersDirectory)
	}
	if cfg.SoundServer.Host != "127.0.0.1" || cfg.SoundServer.Port != 57110 {
		t.Errorf("sound server = %s:%d", cfg.SoundServer.Host, cfg.SoundServer.Port)
	}
	if cfg.Google.RendersFolderID != "folder123" {
		t.Errorf("folder ID = %q", cfg.Google.RendersFolderID)
	}
	if cfg.Email.FromAddress != "lab@example.com" {
		t.Errorf("from address = %q", cfg.Email.FromAddress)
	}
	if got := cfg.Email.Recipients["thomas"]; got.Address != "thomas@example.com" {
		t.Errorf("recipient = %+v", got)
	}
	if len(cfg.Email.DefaultCC) != 0 {
		t.Errorf("default CC = %+v", cfg.Email.DefaultCC)
	}
}

func TestRunSetupKeepsExistingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("paths:\n  data_directory: keep\n"), 0644); err != nil {
		t.Fatal(err)
	}

	prompter := &fakePrompter{t: t, confirms: []bool{false}} // don't overwrite
	if err := RunSetupWithPrompter(prompter, path); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Paths.DataDirectory != "keep" {
		t.Errorf("config was overwritten: %q", cfg.Paths.DataDirectory)
	}
}
