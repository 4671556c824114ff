package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = ".propscan/config.yaml"
	defaultOutputDir  = "propscan-out"
	envPrefix         = "PROPSCAN_"
)

// Config holds the contents of .propscan/config.yaml. Every field can also
// be set through a PROPSCAN_<FIELD> environment variable or a flag.
type Config struct {
	LibraryRoot          string   `yaml:"library_root"`
	ImportPrefix         string   `yaml:"import_prefix"`
	OutputDir            string   `yaml:"output_dir"`
	FileSuffix           string   `yaml:"file_suffix"`
	IndexDescription     string   `yaml:"index_description"`
	IndexVersion         string   `yaml:"index_version"`
	Include              []string `yaml:"include"`
	Exclude              []string `yaml:"exclude"`
	Workers              int      `yaml:"workers"`
	AllowPartialParse    bool     `yaml:"allow_partial_parse"`
	SummaryAsDescription bool     `yaml:"summary_as_description"`
	LogLevel             string   `yaml:"log_level"`
	LogFormat            string   `yaml:"log_format"`
	CallLog              string   `yaml:"call_log"`
}

func defaultConfig() Config {
	return Config{
		LibraryRoot: ".",
		OutputDir:   defaultOutputDir,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// loadConfigFile reads a config file over defaults. A missing file is not
// an error: the defaults are returned.
func loadConfigFile(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv overrides cfg from PROPSCAN_* variables. List values are comma
// separated.
func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v := getenv(envPrefix + name); v != "" {
			*dst = splitList(v)
		}
	}
	var errs []error
	boolean := func(name string, dst *bool) {
		if v := getenv(envPrefix + name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("LIBRARY_ROOT", &cfg.LibraryRoot)
	str("IMPORT_PREFIX", &cfg.ImportPrefix)
	str("OUTPUT_DIR", &cfg.OutputDir)
	str("FILE_SUFFIX", &cfg.FileSuffix)
	str("INDEX_DESCRIPTION", &cfg.IndexDescription)
	str("INDEX_VERSION", &cfg.IndexVersion)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("CALL_LOG", &cfg.CallLog)
	list("INCLUDE", &cfg.Include)
	list("EXCLUDE", &cfg.Exclude)
	boolean("ALLOW_PARTIAL_PARSE", &cfg.AllowPartialParse)
	boolean("SUMMARY_AS_DESCRIPTION", &cfg.SummaryAsDescription)
	if v := getenv(envPrefix + "WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sWORKERS: %w", envPrefix, err))
		} else {
			cfg.Workers = n
		}
	}
	return errors.Join(errs...)
}

// applyFlags overrides cfg with flags the user set explicitly. Flags a
// command does not define are ignored.
func applyFlags(cfg *Config, flags *pflag.FlagSet) {
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}
	str := func(name string, dst *string) {
		if changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	list := func(name string, dst *[]string) {
		if changed(name) {
			*dst, _ = flags.GetStringSlice(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if changed(name) {
			*dst, _ = flags.GetBool(name)
		}
	}

	str("import-prefix", &cfg.ImportPrefix)
	str("out", &cfg.OutputDir)
	str("suffix", &cfg.FileSuffix)
	str("index-description", &cfg.IndexDescription)
	str("index-version", &cfg.IndexVersion)
	str("log-level", &cfg.LogLevel)
	str("log-format", &cfg.LogFormat)
	str("call-log", &cfg.CallLog)
	list("include", &cfg.Include)
	list("exclude", &cfg.Exclude)
	boolean("allow-partial", &cfg.AllowPartialParse)
	boolean("summary-as-description", &cfg.SummaryAsDescription)
	if changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
}

// resolveConfig applies the precedence chain:
//  1. flags set on the command line
//  2. PROPSCAN_* environment variables
//  3. the config file
//  4. defaults
func resolveConfig(path string, flags *pflag.FlagSet, getenv func(string) string) (Config, error) {
	cfg, err := loadConfigFile(path)
	if err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}
	applyFlags(&cfg, flags)
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
