package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/critique-dev/critique/internal/adapter/changeset"
	"github.com/critique-dev/critique/internal/adapter/engine"
	"github.com/critique-dev/critique/internal/adapter/github"
	"github.com/critique-dev/critique/internal/adapter/httpkit"
	"github.com/critique-dev/critique/internal/adapter/store/sqlite"
	"github.com/critique-dev/critique/internal/config"
	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/filter"
	"github.com/critique-dev/critique/internal/reconcile"
	"github.com/critique-dev/critique/internal/usecase/run"
)

func runCommand() *cobra.Command {
	var (
		configFile   string
		repo         string
		pullNumber   int
		commitSHA    string
		findings     string
		summaryPath  string
		prSummary    string
		instructions string
		localRepo    string
		baseRef      string
		trigger      string
		eventKind    string
		isDraft      bool
		labels       []string
		commentOnPR  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the review pipeline against one pull request",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			applyOverrides(&cfg, repo, pullNumber, commitSHA, findings, summaryPath, prSummary)

			if cfg.GitHub.Owner == "" || cfg.GitHub.Repo == "" || cfg.GitHub.PullNumber == 0 {
				return fmt.Errorf("repository and pull request number are required (--repo, --pr)")
			}
			if cfg.GitHub.Token == "" {
				return fmt.Errorf("a GitHub token is required (github.token or CRITIQUE_GITHUB_TOKEN)")
			}

			logger := buildLogger(cfg.Log)

			triggerCtx := domain.TriggerContext{
				Type:          domain.TriggerType(trigger),
				EventKind:     eventKind,
				IsDraft:       isDraft,
				Labels:        labels,
				IsCommentOnPR: commentOnPR,
			}

			result, err := executeRun(cmd.Context(), cfg, logger, triggerCtx, instructions, localRepo, baseRef)
			if err != nil {
				return err
			}

			if result.Suppressed {
				fmt.Fprintf(cmd.OutOrStdout(), "run suppressed: %s\n", result.GateReason)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"review %s: %s (%d high, %d medium, %d low; %d inline comments, %d unanchorable)\n",
				result.Outcome, result.Decision,
				result.Counts.High, result.Counts.Medium, result.Counts.Low,
				result.CommentsPosted, result.DroppedUnanchorable,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Config file path")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository as owner/name")
	cmd.Flags().IntVar(&pullNumber, "pr", 0, "Pull request number")
	cmd.Flags().StringVar(&commitSHA, "commit-sha", "", "Head commit under review")
	cmd.Flags().StringVar(&findings, "findings", "", "Findings artifact path (empty runs the engine directly)")
	cmd.Flags().StringVar(&summaryPath, "summary", "", "Analysis summary artifact path")
	cmd.Flags().StringVar(&prSummary, "pr-summary", "", "PR summary artifact path")
	cmd.Flags().StringVar(&instructions, "instructions", "", "Extra analysis instructions")
	cmd.Flags().StringVar(&localRepo, "local-repo", "", "Diff a local clone instead of the host API")
	cmd.Flags().StringVar(&baseRef, "base", "origin/main", "Base revision for --local-repo diffs")
	cmd.Flags().StringVar(&trigger, "trigger", "commit", "Trigger type (open, ready_for_review, commit, review_request, mention, slash_command, label)")
	cmd.Flags().StringVar(&eventKind, "event", "workflow_dispatch", "Host event kind (e.g. pull_request)")
	cmd.Flags().BoolVar(&isDraft, "draft", false, "Change request is a draft")
	cmd.Flags().StringSliceVar(&labels, "label", nil, "Labels on the change request (repeatable)")
	cmd.Flags().BoolVar(&commentOnPR, "comment-on-pr", false, "Comment trigger's parent is a change request")

	return cmd
}

func applyOverrides(cfg *config.Config, repo string, pullNumber int, commitSHA, findings, summaryPath, prSummary string) {
	if repo != "" {
		if owner, name, err := splitRepo(repo); err == nil {
			cfg.GitHub.Owner = owner
			cfg.GitHub.Repo = name
		}
	}
	if pullNumber != 0 {
		cfg.GitHub.PullNumber = pullNumber
	}
	if commitSHA != "" {
		cfg.GitHub.CommitSHA = commitSHA
	}
	if findings != "" {
		cfg.Artifacts.FindingsPath = findings
	}
	if summaryPath != "" {
		cfg.Artifacts.SummaryPath = summaryPath
	}
	if prSummary != "" {
		cfg.Artifacts.PRSummaryPath = prSummary
	}
}

func executeRun(ctx context.Context, cfg config.Config, logger httpkit.Logger, trigger domain.TriggerContext, instructions, localRepo, baseRef string) (run.Result, error) {
	client := github.NewClient(cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.PullNumber,
		github.WithBaseURL(cfg.GitHub.BaseURL),
		github.WithBotLogin(cfg.GitHub.BotLogin),
		github.WithCommitSHA(cfg.GitHub.CommitSHA),
		github.WithLogger(logger),
	)

	var source changeset.Source
	if localRepo != "" {
		source = changeset.NewLocalSource(localRepo, baseRef)
	} else {
		source = changeset.NewGitHubSource(client, cfg.GitHub.CommitSHA)
	}

	eng := buildEngine(cfg, logger)

	var validator filter.Validator
	if cfg.Filter.Validate && eng != nil {
		validator = eng
	}
	filterEngine := filter.New(cfg.FilterEngineConfig(), validator, logger)

	store, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		return run.Result{}, err
	}
	defer store.Close()

	orchestrator := run.New(run.Deps{
		Changeset:  source,
		Filter:     filterEngine,
		Reconciler: reconcile.NewExecutor(client, logger),
		Markers:    store,
		Gate:       cfg.GateConfig(),
		Logger:     logger,
		Engine:     eng,
	})

	repoKey := cfg.GitHub.Owner + "/" + cfg.GitHub.Repo
	result, err := orchestrator.Execute(ctx, run.Params{
		Repo:          repoKey,
		PullNumber:    cfg.GitHub.PullNumber,
		Trigger:       trigger,
		FindingsPath:  cfg.Artifacts.FindingsPath,
		SummaryPath:   cfg.Artifacts.SummaryPath,
		PRSummaryPath: cfg.Artifacts.PRSummaryPath,
		Instructions:  instructions,
	})
	if err != nil || result.Suppressed {
		return result, err
	}

	// History is diagnostic only; a write failure is logged, not surfaced.
	if recErr := store.RecordRun(ctx, sqlite.RunRecord{
		Repo:       repoKey,
		PullNumber: cfg.GitHub.PullNumber,
		Revision:   result.Revision,
		Outcome:    result.Outcome.String(),
		Findings:   result.Counts.Total(),
	}); recErr != nil {
		logger.LogWarning(ctx, "recording run history failed", map[string]interface{}{"error": recErr.Error()})
	}

	return result, nil
}

func buildEngine(cfg config.Config, logger httpkit.Logger) engine.Engine {
	switch cfg.Engine.Provider {
	case "static":
		return engine.Static{Reply: `{"findings": []}`}
	case "anthropic":
		if cfg.Engine.APIKey == "" {
			return nil
		}
		opts := []engine.AnthropicOption{
			engine.WithAnthropicLogger(logger),
			engine.WithAnthropicMaxTokens(cfg.Engine.MaxTokens),
			engine.WithCustomInstructions(cfg.Engine.CustomInstructions),
		}
		if cfg.Engine.BaseURL != "" {
			opts = append(opts, engine.WithAnthropicBaseURL(cfg.Engine.BaseURL))
		}
		return engine.NewAnthropic(cfg.Engine.APIKey, cfg.Engine.Model, opts...)
	default:
		return nil
	}
}
