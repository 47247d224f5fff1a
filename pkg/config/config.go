package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path"

	"gopkg.in/yaml.v2"
)

const (
	configDir  string = ".dwarfsym"
	configFile string = "config.yml"
)

// DefaultResolveCacheSize is the number of resolved type names cached per
// compile unit.
const DefaultResolveCacheSize = 256

// ColorMode selects when output is colorized.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Config defines all configuration options available to be set through the config file.
type Config struct {
	// EntryPoint is the name of the function whose parameters are not
	// reported, main when empty.
	EntryPoint string `yaml:"entry-point,omitempty"`

	// If ShowLocationExpr is true parameter reports also print the
	// decoded DWARF location expression of every parameter.
	ShowLocationExpr bool `yaml:"show-location-expr"`

	// ResolveCacheSize is the number of resolved type names remembered
	// while building struct registries, 0 disables the cache.
	ResolveCacheSize *int `yaml:"resolve-cache-size,omitempty"`

	// Concurrency is the number of compile units analyzed in parallel.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Color is one of auto, always or never.
	Color ColorMode `yaml:"color,omitempty"`
}

// ResolveCacheSizeOrDefault returns the configured cache size or
// DefaultResolveCacheSize.
func (c *Config) ResolveCacheSizeOrDefault() int {
	if c.ResolveCacheSize == nil {
		return DefaultResolveCacheSize
	}
	return *c.ResolveCacheSize
}

// UseColor reports whether output should be colorized, isTerminal is used
// in auto mode.
func (c *Config) UseColor(isTerminal bool) (bool, error) {
	switch c.Color {
	case "", ColorAuto:
		return isTerminal, nil
	case ColorAlways:
		return true, nil
	case ColorNever:
		return false, nil
	}
	return false, fmt.Errorf("invalid color mode %q, must be one of %s, %s or %s", c.Color, ColorAuto, ColorAlways, ColorNever)
}

// LoadConfig attempts to populate a Config object from the config.yml file.
func LoadConfig() *Config {
	err := createConfigPath()
	if err != nil {
		fmt.Printf("Could not create config directory: %v.", err)
		return &Config{}
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		fmt.Printf("Unable to get config file path: %v.", err)
		return &Config{}
	}

	c, err := loadConfigFile(fullConfigFile)
	if err != nil {
		fmt.Printf("%v.", err)
		return &Config{}
	}
	return c
}

func loadConfigFile(fullConfigFile string) (*Config, error) {
	f, err := os.Open(fullConfigFile)
	if err != nil {
		f, err = createDefaultConfig(fullConfigFile)
		if err != nil {
			return nil, fmt.Errorf("error creating default config file: %v", err)
		}
	}
	defer f.Close()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("unable to read config data: %v", err)
	}

	var c Config
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config file: %v", err)
	}

	return &c, nil
}

// SaveConfig will marshal and save the config struct
// to disk.
func SaveConfig(conf *Config) error {
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return err
	}
	return saveConfigFile(fullConfigFile, conf)
}

func saveConfigFile(fullConfigFile string, conf *Config) error {
	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}

	f, err := os.Create(fullConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}

func createDefaultConfig(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create config file: %v", err)
	}
	err = writeDefaultConfig(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to write default configuration: %v", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeDefaultConfig(f *os.File) error {
	_, err := f.WriteString(
		`# Configuration file for dwarfsym.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Name of the function whose parameters are left out of the reports.
# entry-point: main

# Uncomment the following line to print the decoded DWARF location expression of every parameter.
# show-location-expr: true

# Number of resolved type names cached for each compile unit, 0 disables the cache.
# resolve-cache-size: 256

# Number of compile units analyzed in parallel.
# concurrency: 4

# When to colorize output: auto, always or never.
# color: auto
`)
	return err
}

// createConfigPath creates the directory structure at which all config files are saved.
func createConfigPath() error {
	path, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0700)
}

// GetConfigFilePath gets the full path to the given config file name.
func GetConfigFilePath(file string) (string, error) {
	userHomeDir := "."
	usr, err := user.Current()
	if err == nil {
		userHomeDir = usr.HomeDir
	}
	return path.Join(userHomeDir, configDir, file), nil
}
