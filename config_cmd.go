package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/Mrnobodysmkn/TTS-04/internal/config"
	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configCmd = &cobra.Command{
		Use:     "config",
		Hidden:  false,
		Short:   "Edit the avaye config file",
		Long:    paragraph(fmt.Sprintf("\n%s the avaye config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
		Example: paragraph("avaye config\navaye config --config path/to/avaye.yml\navaye config check"),
		Args:    cobra.NoArgs,
		// Editing must work even when the current file does not validate.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return resolveConfigFile()
		},
		RunE: func(*cobra.Command, []string) error {
			if err := config.EnsureFile(configFile); err != nil {
				return err
			}

			c, err := editor.Cmd("Avaye", configFile)
			if err != nil {
				return fmt.Errorf("unable to set config file: %w", err)
			}
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				return fmt.Errorf("unable to run command: %w", err)
			}

			fmt.Println("Wrote config file to:", configFile)
			return nil
		},
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), configFile)
			return nil
		},
	}

	configCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Check that the configured provider can be used",
		Long:  paragraph(fmt.Sprintf("\n%s the configuration and the API key of the selected provider. No requests are sent.", keyword("Check"))),
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadConfig()
		},
		RunE: runConfigCheck,
	}
)

// resolveConfigFile picks the file to edit: the --config flag, the file
// viper finds, or a new file in the user config directory.
func resolveConfigFile() error {
	if configFile != "" {
		return nil
	}

	v := viper.GetViper()
	if err := config.Setup(v, ""); err != nil {
		return err
	}
	_ = config.Read(v)
	if f := v.ConfigFileUsed(); f != "" {
		if _, err := os.Stat(f); err == nil {
			configFile = f
			return nil
		}
	}

	path, err := config.DefaultPath()
	if err != nil {
		return fmt.Errorf("could not locate configuration directory: %w", err)
	}
	configFile = path
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	res := config.CheckProvider(cfg)

	if configFile != "" {
		fmt.Fprintf(out, "%s %s\n", pad("config", 14), faint(configFile))
	}
	keys := make([]string, 0, len(res.Details))
	for k := range res.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s %s\n", pad(k, 14), res.Details[k])
	}
	fmt.Fprintln(out)

	if !res.Available {
		fmt.Fprintln(out, failure(fmt.Sprintf("✗ %s is not ready: %v", res.Provider, res.Error)))
		if res.Guidance != "" {
			fmt.Fprintln(out, paragraph(res.Guidance))
		}
		return res.Error
	}
	fmt.Fprintln(out, keyword(fmt.Sprintf("✓ %s is ready", res.Provider)))
	return nil
}

func init() {
	configCmd.AddCommand(configPathCmd, configCheckCmd)
}
