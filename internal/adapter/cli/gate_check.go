package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/critique-dev/critique/internal/adapter/store/sqlite"
	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/gate"
)

func gateCheckCommand() *cobra.Command {
	var (
		configFile  string
		repo        string
		pullNumber  int
		trigger     string
		eventKind   string
		revision    string
		isDraft     bool
		labels      []string
		commentOnPR bool
	)

	cmd := &cobra.Command{
		Use:   "gate-check",
		Short: "Decide whether a pipeline run should happen",
		Long: `Evaluates the trigger context against configuration and the run marker.
Exits 0 when the run should proceed and 78 when it is suppressed, so CI can
skip the expensive analysis step without failing the job.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if repo != "" {
				if owner, name, splitErr := splitRepo(repo); splitErr == nil {
					cfg.GitHub.Owner = owner
					cfg.GitHub.Repo = name
				}
			}
			if pullNumber != 0 {
				cfg.GitHub.PullNumber = pullNumber
			}

			store, err := sqlite.Open(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			repoKey := cfg.GitHub.Owner + "/" + cfg.GitHub.Repo
			marker, err := store.Marker(cmd.Context(), repoKey, cfg.GitHub.PullNumber)
			if err != nil {
				return err
			}

			decision := gate.Evaluate(domain.TriggerContext{
				Type:          domain.TriggerType(trigger),
				EventKind:     eventKind,
				IsDraft:       isDraft,
				Labels:        labels,
				IsCommentOnPR: commentOnPR,
			}, cfg.GateConfig(), marker, revision)

			fmt.Fprintln(cmd.OutOrStdout(), decision.Reason)
			if !decision.Enabled {
				return ErrRunSuppressed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Config file path")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository as owner/name")
	cmd.Flags().IntVar(&pullNumber, "pr", 0, "Pull request number")
	cmd.Flags().StringVar(&trigger, "trigger", "", "Trigger type (open, ready_for_review, commit, review_request, mention, slash_command, label)")
	cmd.Flags().StringVar(&eventKind, "event", "", "Host event kind (e.g. pull_request)")
	cmd.Flags().StringVar(&revision, "revision", "", "Current changeset revision")
	cmd.Flags().BoolVar(&isDraft, "draft", false, "Change request is a draft")
	cmd.Flags().StringSliceVar(&labels, "label", nil, "Labels on the change request (repeatable)")
	cmd.Flags().BoolVar(&commentOnPR, "comment-on-pr", false, "Comment trigger's parent is a change request")

	return cmd
}
