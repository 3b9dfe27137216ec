// Package config defines the configuration surface and its file/env loader.
package config

import (
	"time"

	"github.com/critique-dev/critique/internal/filter"
	"github.com/critique-dev/critique/internal/gate"
)

// Config is the full configuration tree.
type Config struct {
	GitHub    GitHubConfig   `mapstructure:"github"`
	Engine    EngineConfig   `mapstructure:"engine"`
	Filter    FilterConfig   `mapstructure:"filter"`
	Triggers  TriggerConfig  `mapstructure:"triggers"`
	Artifacts ArtifactConfig `mapstructure:"artifacts"`
	Store     StoreConfig    `mapstructure:"store"`
	Log       LogConfig      `mapstructure:"log"`
}

// GitHubConfig locates the pull request under review and how to talk to
// the host.
type GitHubConfig struct {
	Token      string `mapstructure:"token"`
	Owner      string `mapstructure:"owner"`
	Repo       string `mapstructure:"repo"`
	PullNumber int    `mapstructure:"pull_number"`
	CommitSHA  string `mapstructure:"commit_sha"`
	BaseURL    string `mapstructure:"base_url"`
	BotLogin   string `mapstructure:"bot_login"`
}

// EngineConfig selects and configures the analysis provider.
type EngineConfig struct {
	Provider           string `mapstructure:"provider"`
	APIKey             string `mapstructure:"api_key"`
	Model              string `mapstructure:"model"`
	BaseURL            string `mapstructure:"base_url"`
	MaxTokens          int    `mapstructure:"max_tokens"`
	CustomInstructions string `mapstructure:"custom_instructions"`
}

// FilterConfig mirrors the filtering engine's stages. Each stage carries its
// own enable flag.
type FilterConfig struct {
	HardExclusions        bool          `mapstructure:"hard_exclusions"`
	DisableBuiltinRules   bool          `mapstructure:"disable_builtin_rules"`
	DirectoryExclusions   bool          `mapstructure:"directory_exclusions"`
	ExcludedDirs          []string      `mapstructure:"excluded_dirs"`
	ConfidenceThreshold   bool          `mapstructure:"confidence_threshold"`
	MinConfidence         float64       `mapstructure:"min_confidence"`
	Validate              bool          `mapstructure:"validate"`
	ValidationConcurrency int           `mapstructure:"validation_concurrency"`
	ValidationTimeout     time.Duration `mapstructure:"validation_timeout"`
}

// TriggerConfig holds the per-trigger enable flags. on_push is the legacy
// spelling of on_commit and either satisfies the commit trigger.
type TriggerConfig struct {
	OnOpen           bool   `mapstructure:"on_open"`
	OnReadyForReview bool   `mapstructure:"on_ready_for_review"`
	OnCommit         bool   `mapstructure:"on_commit"`
	OnPush           bool   `mapstructure:"on_push"`
	OnReviewRequest  bool   `mapstructure:"on_review_request"`
	OnMention        bool   `mapstructure:"on_mention"`
	OnSlashCommand   bool   `mapstructure:"on_slash_command"`
	OnLabel          bool   `mapstructure:"on_label"`
	RequiredLabel    string `mapstructure:"required_label"`
	SkipDrafts       bool   `mapstructure:"skip_drafts"`
}

// ArtifactConfig points at the files the upstream analysis step wrote.
type ArtifactConfig struct {
	FindingsPath  string `mapstructure:"findings_path"`
	SummaryPath   string `mapstructure:"summary_path"`
	PRSummaryPath string `mapstructure:"pr_summary_path"`
}

// StoreConfig locates the run marker database.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls log verbosity and format. An empty format picks JSON
// in CI and human output on a terminal.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GateConfig maps the trigger flags onto the run gate's configuration.
func (c Config) GateConfig() gate.Config {
	return gate.Config{
		OnOpen:           c.Triggers.OnOpen,
		OnReadyForReview: c.Triggers.OnReadyForReview,
		OnCommit:         c.Triggers.OnCommit,
		OnPush:           c.Triggers.OnPush,
		OnReviewRequest:  c.Triggers.OnReviewRequest,
		OnMention:        c.Triggers.OnMention,
		OnSlashCommand:   c.Triggers.OnSlashCommand,
		OnLabel:          c.Triggers.OnLabel,
		RequiredLabel:    c.Triggers.RequiredLabel,
		SkipDrafts:       c.Triggers.SkipDrafts,
	}
}

// FilterEngineConfig maps onto the filtering engine's configuration.
func (c Config) FilterEngineConfig() filter.Config {
	return filter.Config{
		HardExclusions:        c.Filter.HardExclusions,
		DisableBuiltinRules:   c.Filter.DisableBuiltinRules,
		DirectoryExclusions:   c.Filter.DirectoryExclusions,
		ExcludedDirs:          c.Filter.ExcludedDirs,
		ConfidenceThreshold:   c.Filter.ConfidenceThreshold,
		MinConfidence:         c.Filter.MinConfidence,
		Validate:              c.Filter.Validate,
		ValidationConcurrency: c.Filter.ValidationConcurrency,
		ValidationTimeout:     c.Filter.ValidationTimeout,
	}
}
