package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultConfigSearchPaths are checked in order; the first file found wins.
var DefaultConfigSearchPaths = []string{
	filepath.Join(os.Getenv("HOME"), ".micoreca.toml"),
	filepath.Join(os.Getenv("HOME"), ".config", ".micoreca.toml"),
}

// Config is the TOML configuration struct.  When a ~/.micoreca.toml or
// ~/.config/.micoreca.toml file exists, the values contained therein will
// override the compiled-in defaults.  Index credentials may additionally be
// supplied through the MICORECA_INDEX_URL and MICORECA_INDEX_TOKEN
// environment variables (a .env file in the working directory is honored).
type Config struct {
	File string `toml:"-"`

	DB      string
	Quiet   bool
	Verbose bool
	Index   string
	Token   string
}

func NewConfig() *Config {
	return &Config{}
}

// Do locates, parses, and applies the configuration.  Values already set on
// the command-line are left alone.
func (config *Config) Do() error {
	file, err := config.find()
	if err != nil {
		return err
	}

	if len(file) > 0 {
		if _, err := toml.DecodeFile(file, config); err != nil {
			return err
		}
		config.File = file
		config.Apply()
	}

	config.applyEnv()
	return nil
}

func (config *Config) Apply() {
	if len(config.DB) > 0 {
		DBFile = config.DB
	}
	if config.Quiet {
		Quiet = true
	}
	if config.Verbose {
		Verbose = true
	}
	if len(config.Index) > 0 && len(IndexURL) == 0 {
		IndexURL = config.Index
	}
	if len(config.Token) > 0 && len(IndexToken) == 0 {
		IndexToken = config.Token
	}
}

func (config *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("MICORECA_INDEX_URL"); len(v) > 0 && len(IndexURL) == 0 {
		IndexURL = v
	}
	if v := os.Getenv("MICORECA_INDEX_TOKEN"); len(v) > 0 && len(IndexToken) == 0 {
		IndexToken = v
	}
}

func (config *Config) find() (string, error) {
	for _, path := range DefaultConfigSearchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return "", err
		}
	}
	return "", nil
}
