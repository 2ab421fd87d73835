// Package main provides the entry point for the avaye CLI application.
package main

import (
	"fmt"
	"os"

	"github.com/Mrnobodysmkn/TTS-04/internal/config"
	"github.com/Mrnobodysmkn/TTS-04/internal/logging"
	"github.com/Mrnobodysmkn/TTS-04/internal/speech"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	cfg        config.Config
	closeLog   = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:   "avaye",
		Short: "Persian text-to-speech on the CLI",
		Long: paragraph(
			fmt.Sprintf("\nTurn Persian text into %s with Gemini or OpenAI voices.", keyword("natural speech")),
		),
		SilenceErrors: false,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}
)

// loadConfig reads the config file and environment into cfg and configures
// logging accordingly.
func loadConfig() error {
	v := viper.GetViper()
	if err := config.Setup(v, configFile); err != nil {
		return err
	}
	if err := config.Read(v); err != nil {
		log.Warn("Could not parse configuration file", "err", err)
	}

	var err error
	cfg, err = config.Load(v)
	if err != nil {
		return err
	}

	closer, err := logging.Setup(logging.Options{
		Debug: cfg.Log.Debug,
		File:  cfg.Log.File,
	})
	if err != nil {
		return err
	}
	closeLog = closer

	if configFile == "" {
		configFile = v.ConfigFileUsed()
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_ = closeLog()
		os.Exit(1)
	}
	_ = closeLog()
}

func init() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default searched in the user config directory)")
	rootCmd.PersistentFlags().String("provider", "", "speech provider (gemini or openai)")
	rootCmd.PersistentFlags().StringP("voice", "v", "", "voice id (see \"avaye voices\")")
	rootCmd.PersistentFlags().Duration("timeout", 0, "time limit for each remote call")
	rootCmd.PersistentFlags().Int("chunk-size", 0, fmt.Sprintf("longest text sent in one request (default %d)", speech.DefaultChunkSize))
	rootCmd.PersistentFlags().String("audio", "", "audio backend (auto, oto or mock)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "write a debug log to this file")

	// Config bindings
	_ = viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("voice", rootCmd.PersistentFlags().Lookup("voice"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("chunk_size", rootCmd.PersistentFlags().Lookup("chunk-size"))
	_ = viper.BindPFlag("audio.backend", rootCmd.PersistentFlags().Lookup("audio"))
	_ = viper.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))

	rootCmd.AddCommand(speakCmd, sampleCmd, voicesCmd, splitCmd, configCmd)
}
