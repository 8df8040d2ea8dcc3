// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/tourze/gitee-oauth/pkg/logger"
	"github.com/tourze/gitee-oauth/pkg/reposync"
)

func newSyncRepositoriesCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync-repositories <userId> <applicationId>",
		Short: "Mirror a user's Gitee repositories into storage",
		Long: `Fetch every repository the user can access through the given application and
store it locally. Repositories whose stored push time is current are skipped
unless --force is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncRepositories(cmd, args[0], args[1], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Rewrite repositories even when they are up to date")

	return cmd
}

func runSyncRepositories(cmd *cobra.Command, userID, applicationID string, force bool) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	app, err := svc.store.GetApplication(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("failed to load application %s: %w", applicationID, err)
	}

	syncer := reposync.New(svc.gitee, svc.store, reposync.WithLogger(logger.NewLogr()))
	stats, err := syncer.Sync(ctx, userID, app, force)
	if err != nil {
		return fmt.Errorf("repository sync failed: %w", err)
	}

	return renderStats(cmd.OutOrStdout(), stats)
}

// renderStats prints the sync statistics as a table.
func renderStats(w io.Writer, stats reposync.Stats) error {
	table := tablewriter.NewWriter(w)
	table.Options(
		tablewriter.WithHeader([]string{"Processed", "Created", "Updated", "Skipped"}),
		tablewriter.WithRendition(
			tw.Rendition{
				Borders: tw.Border{
					Left:   tw.State(1),
					Top:    tw.State(1),
					Right:  tw.State(1),
					Bottom: tw.State(1),
				},
			},
		),
		tablewriter.WithAlignment(tw.MakeAlign(4, tw.AlignRight)),
	)

	if err := table.Append([]string{
		fmt.Sprint(stats.Processed),
		fmt.Sprint(stats.Created),
		fmt.Sprint(stats.Updated),
		fmt.Sprint(stats.Skipped),
	}); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}
