package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// AppName names the config directory, file and environment prefix.
const AppName = "avaye"

// FileName is the base name of the config file.
const FileName = AppName + ".yml"

// ErrUnsupportedType is returned for config files that are not YAML.
var ErrUnsupportedType = errors.New("unsupported configuration type")

// Keys holds provider credentials read from the conventional environment
// variables of each provider.
type Keys struct {
	Gemini string `env:"GEMINI_API_KEY"`
	OpenAI string `env:"OPENAI_API_KEY"`
}

// Dirs returns the directories searched for the config file, most specific
// first.
func Dirs() ([]string, error) {
	scope := gap.NewScope(gap.User, AppName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("could not find configuration directory: %w", err)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, AppName)}, dirs...)
	}

	if c := os.Getenv("AVAYE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	return dirs, nil
}

// SetDefaults registers every default value with v, which also makes the
// keys visible to automatic environment lookup.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("provider", d.Provider)
	v.SetDefault("voice", d.Voice)
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("enhance", d.Enhance)
	v.SetDefault("timeout", d.Timeout)

	v.SetDefault("audio.backend", d.Audio.Backend)
	v.SetDefault("cache.max_size", d.Cache.MaxSize)

	for name, p := range map[string]ProviderConfig{"gemini": d.Gemini, "openai": d.OpenAI} {
		v.SetDefault(name+".api_key", p.APIKey)
		v.SetDefault(name+".base_url", p.BaseURL)
		v.SetDefault(name+".speech_model", p.SpeechModel)
		v.SetDefault(name+".enhance_model", p.EnhanceModel)
		v.SetDefault(name+".requests_per_minute", p.RequestsPerMinute)
	}

	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.file", d.Log.File)
}

// Setup prepares v to read the config file and AVAYE_* environment
// variables. An explicit file takes precedence over the search path.
func Setup(v *viper.Viper, file string) error {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		dirs, err := Dirs()
		if err != nil {
			return err
		}
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
		v.SetConfigName(AppName)
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return nil
}

// Read loads the config file into v. A missing file is not an error.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not parse configuration file: %w", err)
	}

	log.Debug("Using configuration file", "path", v.ConfigFileUsed())
	return nil
}

// Load decodes v into a validated Config. API keys missing from the config
// are taken from GEMINI_API_KEY and OPENAI_API_KEY.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode configuration: %w", err)
	}

	keys, err := env.ParseAs[Keys]()
	if err != nil {
		return cfg, fmt.Errorf("error parsing environment: %w", err)
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = keys.Gemini
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = keys.OpenAI
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultPath returns the path a new config file is created at.
func DefaultPath() (string, error) {
	dirs, err := Dirs()
	if err != nil {
		return "", err
	}
	if len(dirs) == 0 {
		return "", errors.New("no configuration directory available")
	}
	return filepath.Join(dirs[0], FileName), nil
}

// EnsureFile creates file with the default configuration unless it exists.
func EnsureFile(file string) error {
	if ext := path.Ext(file); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w '%s': use '%s' or '%s'", ErrUnsupportedType, ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(file)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(DefaultFile); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
		log.Debug("Wrote default configuration", "path", file)
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}

// DefaultFile is written on first run.
const DefaultFile = `# speech provider: gemini or openai
provider: "gemini"
# default voice (see "avaye voices")
voice: "kore"
# longest text, in characters, sent in one request
chunk_size: 4500
# rewrite text for natural narration before synthesis
enhance: false
# time limit for every remote call
timeout: "60s"

audio:
  # auto, oto or mock
  backend: "auto"

cache:
  # in-memory speech cache for this session, in MB (0 disables it)
  max_size: 64

gemini:
  # api_key is read from GEMINI_API_KEY when unset
  # base_url: "https://generativelanguage.googleapis.com/v1beta"
  # speech_model: "gemini-2.5-flash-preview-tts"
  # enhance_model: "gemini-2.5-pro"
  requests_per_minute: 30

openai:
  # api_key is read from OPENAI_API_KEY when unset
  # base_url: "https://api.openai.com/v1"
  # speech_model: "tts-1"
  # enhance_model: "gpt-4o-mini"
  requests_per_minute: 50

log:
  debug: false
  # file: "/tmp/avaye-debug.log"
`
