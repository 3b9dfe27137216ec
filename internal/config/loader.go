package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	// ConfigFile is an explicit path; when empty, ConfigPaths are searched
	// for FileName.{yaml,yml,json,toml}.
	ConfigFile  string
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load merges file configuration with CRITIQUE_* environment variables.
// A missing config file is not an error; env and defaults still apply.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "critique"
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = locateConfigFile(name, opts.ConfigPaths)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "CRITIQUE"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Secrets in config files are usually ${VAR} references.
	cfg.GitHub.Token = expandEnvString(cfg.GitHub.Token)
	cfg.Engine.APIKey = expandEnvString(cfg.Engine.APIKey)

	return cfg, nil
}

// setDefaults registers every key, including zero-valued ones: viper only
// binds environment variables for keys it already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("github.token", "")
	v.SetDefault("github.owner", "")
	v.SetDefault("github.repo", "")
	v.SetDefault("github.pull_number", 0)
	v.SetDefault("github.commit_sha", "")
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.bot_login", "critique[bot]")

	v.SetDefault("engine.provider", "anthropic")
	v.SetDefault("engine.api_key", "")
	v.SetDefault("engine.model", "claude-sonnet-4-5")
	v.SetDefault("engine.base_url", "")
	v.SetDefault("engine.max_tokens", 8192)
	v.SetDefault("engine.custom_instructions", "")

	v.SetDefault("filter.hard_exclusions", true)
	v.SetDefault("filter.disable_builtin_rules", false)
	v.SetDefault("filter.directory_exclusions", true)
	v.SetDefault("filter.excluded_dirs", []string{})
	v.SetDefault("filter.confidence_threshold", true)
	v.SetDefault("filter.min_confidence", 0.7)
	v.SetDefault("filter.validate", false)
	v.SetDefault("filter.validation_concurrency", 4)
	v.SetDefault("filter.validation_timeout", "60s")

	v.SetDefault("triggers.on_open", true)
	v.SetDefault("triggers.on_ready_for_review", true)
	v.SetDefault("triggers.on_commit", true)
	v.SetDefault("triggers.on_push", false)
	v.SetDefault("triggers.on_review_request", true)
	v.SetDefault("triggers.on_mention", false)
	v.SetDefault("triggers.on_slash_command", false)
	v.SetDefault("triggers.on_label", false)
	v.SetDefault("triggers.required_label", "")
	v.SetDefault("triggers.skip_drafts", true)

	v.SetDefault("artifacts.findings_path", "findings.json")
	v.SetDefault("artifacts.summary_path", "analysis-summary.json")
	v.SetDefault("artifacts.pr_summary_path", "pr-summary.json")

	v.SetDefault("store.path", "critique.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
}

func locateConfigFile(name string, paths []string) string {
	if len(paths) == 0 {
		paths = []string{"."}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, ".config", "critique"))
		}
	}
	for _, dir := range paths {
		for _, ext := range []string{"yaml", "yml", "json", "toml"} {
			candidate := filepath.Join(dir, name+"."+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// expandEnvString expands ${VAR} and $VAR references against the process
// environment.
func expandEnvString(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.ExpandEnv(s)
}
