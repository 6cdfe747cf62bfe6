package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"panson/infrastructure/config"

	"github.com/spf13/cobra"
)

// DefaultOutput is the default output writer for config commands
var DefaultOutput OutputWriter = os.Stdout

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration entries",
	Long: `Manage sonification presets, recipients, CC recipients, and senders in
the configuration file.

Examples:
  panson config list presets
  panson config add preset --key au-bells --synthdef bells --mapping "AU12_r:freq:0:1:200:900"
  panson config add recipient --key thomas --name "Thomas Hermann" --email "thomas@example.com"
  panson config remove preset au-bells
  panson config set-default sender dev`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	// Add subcommands
	configCmd.AddCommand(configAddCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configRemoveCmd)
	configCmd.AddCommand(configUpdateCmd)
	configCmd.AddCommand(configSetDefaultCmd)
}

// parseMapping parses a "column:control:inMin:inMax:outMin:outMax" flag
// value into a mapping config
func parseMapping(s string) (config.MappingConfig, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return config.MappingConfig{}, fmt.Errorf(
			"invalid mapping %q: expected column:control:inMin:inMax:outMin:outMax", s)
	}

	column := strings.TrimSpace(parts[0])
	control := strings.TrimSpace(parts[1])
	if column == "" || control == "" {
		return config.MappingConfig{}, fmt.Errorf("invalid mapping %q: column and control are required", s)
	}

	bounds := make([]float64, 4)
	for i, p := range parts[2:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return config.MappingConfig{}, fmt.Errorf("invalid mapping %q: %q is not a number", s, p)
		}
		bounds[i] = v
	}

	return config.MappingConfig{
		Column:  column,
		Control: control,
		InMin:   bounds[0],
		InMax:   bounds[1],
		OutMin:  bounds[2],
		OutMax:  bounds[3],
	}, nil
}

// --- ADD command ---

var (
	addKey          string
	addName         string
	addEmail        string
	addSynthDef     string
	addSynthDefFile string
	addNodeID       int32
	addMappings     []string
)

var configAddCmd = &cobra.Command{
	Use:   "add [preset|recipient|cc|sender]",
	Short: "Add a new config entry",
	Long: `Add a new sonification preset, recipient, CC, or sender to the configuration.

A preset needs a synthdef name and at least one mapping. Mappings link a
feature column to a synth control with linear scaling, written as
column:control:inMin:inMax:outMin:outMax.

Examples:
  panson config add preset --key au-bells --synthdef bells \
    --mapping "AU12_r:freq:0:1:200:900" --mapping "AU06_r:amp:0:1:0:0.5"
  panson config add recipient --key thomas --name "Thomas Hermann" --email "thomas@example.com"
  panson config add cc --key jane --name "Jane Doe" --email "jane@example.com"
  panson config add sender --key dev --name "Dev Team"`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigAdd,
}

func init() {
	configAddCmd.Flags().StringVar(&addKey, "key", "", "Unique key for the entry (required)")
	configAddCmd.Flags().StringVar(&addName, "name", "", "Display name (required for recipient, cc and sender)")
	configAddCmd.Flags().StringVar(&addEmail, "email", "", "Email address (required for recipient and cc)")
	configAddCmd.Flags().StringVar(&addSynthDef, "synthdef", "", "Synth definition name (required for preset)")
	configAddCmd.Flags().StringVar(&addSynthDefFile, "synthdef-file", "", "Synthdef file loaded before playback (preset only)")
	configAddCmd.Flags().Int32Var(&addNodeID, "node-id", 0, "Fixed synth node ID (preset only)")
	configAddCmd.Flags().StringArrayVar(&addMappings, "mapping", nil, "Feature mapping column:control:inMin:inMax:outMin:outMax (preset only, repeatable)")
	configAddCmd.MarkFlagRequired("key")
}

func runConfigAdd(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	if args[0] == "preset" {
		preset := config.PresetConfig{
			SynthDef:     addSynthDef,
			SynthDefFile: addSynthDefFile,
			NodeID:       addNodeID,
		}
		for _, m := range addMappings {
			mapping, err := parseMapping(m)
			if err != nil {
				return err
			}
			preset.Mappings = append(preset.Mappings, mapping)
		}
		return RunConfigAddPresetWithDependencies(cfg, cfgFile, addKey, preset, DefaultOutput)
	}

	return RunConfigAddWithDependencies(cfg, cfgFile, args[0], addKey, addName, addEmail, DefaultOutput)
}

// RunConfigAddPresetWithDependencies runs the preset add with injected dependencies
func RunConfigAddPresetWithDependencies(cfg *config.Config, configPath, key string, preset config.PresetConfig, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.AddPreset(key, preset); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added preset %q: %s (%d mappings)\n", key, preset.SynthDef, len(preset.Mappings))
	return nil
}

// RunConfigAddWithDependencies runs the add command with injected dependencies
func RunConfigAddWithDependencies(cfg *config.Config, configPath, entityType, key, name, email string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	switch entityType {
	case "recipient":
		if email == "" {
			return fmt.Errorf("--email is required for recipients")
		}
		if err := mgr.AddRecipient(key, name, email); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added recipient %q: %s <%s>\n", key, name, email)

	case "cc":
		if email == "" {
			return fmt.Errorf("--email is required for cc")
		}
		if err := mgr.AddCC(key, name, email); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added CC %q: %s <%s>\n", key, name, email)

	case "sender":
		if err := mgr.AddSender(key, name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added sender %q: %s\n", key, name)

	default:
		return fmt.Errorf("unknown entity type %q. Use preset, recipient, cc, or sender", entityType)
	}

	return nil
}

// --- LIST command ---

var configListCmd = &cobra.Command{
	Use:   "list [presets|recipients|ccs|senders]",
	Short: "List config entries",
	Long: `List all sonification presets, recipients, CC recipients, or senders.

Examples:
  panson config list presets
  panson config list recipients
  panson config list ccs
  panson config list senders`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigList,
}

func runConfigList(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	return RunConfigListWithDependencies(cfg, cfgFile, args[0], DefaultOutput)
}

// RunConfigListWithDependencies runs the list command with injected dependencies
func RunConfigListWithDependencies(cfg *config.Config, configPath, entityType string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	switch entityType {
	case "presets":
		presets := mgr.ListPresets()
		if len(presets) == 0 {
			fmt.Fprintln(out, "No presets configured.")
			return nil
		}
		fmt.Fprintln(w, "KEY\tSYNTHDEF\tMAPPINGS")
		for _, p := range presets {
			columns := make([]string, len(p.Config.Mappings))
			for i, m := range p.Config.Mappings {
				columns[i] = fmt.Sprintf("%s>%s", m.Column, m.Control)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Key, p.Config.SynthDef, strings.Join(columns, ", "))
		}

	case "recipients":
		recipients := mgr.ListRecipients()
		if len(recipients) == 0 {
			fmt.Fprintln(out, "No recipients configured.")
			return nil
		}
		fmt.Fprintln(w, "KEY\tNAME\tEMAIL")
		for _, r := range recipients {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Key, r.Name, r.Address)
		}

	case "ccs":
		ccs := mgr.ListCCs()
		if len(ccs) == 0 {
			fmt.Fprintln(out, "No CCs configured.")
			return nil
		}
		fmt.Fprintln(w, "KEY\tNAME\tEMAIL")
		for _, c := range ccs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Key, c.Name, c.Address)
		}

	case "senders":
		senders := mgr.ListSenders()
		if len(senders) == 0 {
			fmt.Fprintln(out, "No senders configured.")
			return nil
		}
		// Show default indicator
		defaultSender := cfg.Senders.DefaultSender
		fmt.Fprintln(w, "KEY\tNAME\tDEFAULT")
		for _, s := range senders {
			isDefault := ""
			if s.Key == defaultSender {
				isDefault = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Key, s.Name, isDefault)
		}

	default:
		return fmt.Errorf("unknown entity type %q. Use presets, recipients, ccs, or senders", entityType)
	}

	return w.Flush()
}

// --- REMOVE command ---

var configRemoveCmd = &cobra.Command{
	Use:   "remove [preset|recipient|cc|sender] <key>",
	Short: "Remove a config entry",
	Long: `Remove a preset, recipient, CC, or sender from the configuration.

Examples:
  panson config remove preset au-bells
  panson config remove recipient thomas
  panson config remove cc jane
  panson config remove sender dev`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigRemove,
}

func runConfigRemove(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	return RunConfigRemoveWithDependencies(cfg, cfgFile, args[0], args[1], DefaultOutput)
}

// RunConfigRemoveWithDependencies runs the remove command with injected dependencies
func RunConfigRemoveWithDependencies(cfg *config.Config, configPath, entityType, key string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	switch entityType {
	case "preset":
		if err := mgr.RemovePreset(key); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed preset %q\n", key)

	case "recipient":
		if err := mgr.RemoveRecipient(key); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed recipient %q\n", key)

	case "cc":
		if err := mgr.RemoveCC(key); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed CC %q\n", key)

	case "sender":
		if err := mgr.RemoveSender(key); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed sender %q\n", key)

	default:
		return fmt.Errorf("unknown entity type %q. Use preset, recipient, cc, or sender", entityType)
	}

	return nil
}

// --- UPDATE command ---

var (
	updateName  string
	updateEmail string
)

var configUpdateCmd = &cobra.Command{
	Use:   "update [recipient|cc|sender] <key>",
	Short: "Update a config entry",
	Long: `Update an existing recipient, CC, or sender in the configuration.
Presets are replaced by removing and re-adding them.

Examples:
  panson config update recipient thomas --email "thomas.new@example.com"
  panson config update cc jane --name "Jane Smith"
  panson config update sender dev --name "Sonification Team"`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigUpdate,
}

func init() {
	configUpdateCmd.Flags().StringVar(&updateName, "name", "", "New display name")
	configUpdateCmd.Flags().StringVar(&updateEmail, "email", "", "New email address")
}

func runConfigUpdate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	if updateName == "" && updateEmail == "" {
		return fmt.Errorf("at least one of --name or --email is required")
	}

	return RunConfigUpdateWithDependencies(cfg, cfgFile, args[0], args[1], updateName, updateEmail, DefaultOutput)
}

// RunConfigUpdateWithDependencies runs the update command with injected dependencies
func RunConfigUpdateWithDependencies(cfg *config.Config, configPath, entityType, key, name, email string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	switch entityType {
	case "recipient":
		if err := mgr.UpdateRecipient(key, name, email); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated recipient %q\n", key)

	case "cc":
		if err := mgr.UpdateCC(key, name, email); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated CC %q\n", key)

	case "sender":
		if name == "" {
			return fmt.Errorf("--name is required for sender update")
		}
		if err := mgr.UpdateSender(key, name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated sender %q\n", key)

	default:
		return fmt.Errorf("unknown entity type %q. Use recipient, cc, or sender", entityType)
	}

	return nil
}

// --- SET-DEFAULT command ---

var configSetDefaultCmd = &cobra.Command{
	Use:   "set-default sender <key>",
	Short: "Set the default sender",
	Long: `Set the sender used when no --sender flag is given.

Example:
  panson config set-default sender dev`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSetDefault,
}

func runConfigSetDefault(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	return RunConfigSetDefaultWithDependencies(cfg, cfgFile, args[0], args[1], DefaultOutput)
}

// RunConfigSetDefaultWithDependencies runs the set-default command with injected dependencies
func RunConfigSetDefaultWithDependencies(cfg *config.Config, configPath, entityType, key string, out OutputWriter) error {
	if entityType != "sender" {
		return fmt.Errorf("unknown entity type %q. Only sender has a default", entityType)
	}

	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.SetDefaultSender(key); err != nil {
		return err
	}
	fmt.Fprintf(out, "Default sender set to %q\n", key)
	return nil
}
