// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the gitee command-line application.
package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tourze/gitee-oauth/pkg/config"
	"github.com/tourze/gitee-oauth/pkg/gitee/client"
	"github.com/tourze/gitee-oauth/pkg/logger"
	"github.com/tourze/gitee-oauth/pkg/oauth"
	"github.com/tourze/gitee-oauth/pkg/storage"
)

// NewRootCmd creates a new root command for the gitee CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "gitee",
		DisableAutoGenTag: true,
		Short:             "Gitee OAuth2 service",
		Long: `gitee runs the Gitee OAuth2 authorization code flow for registered applications,
stores the issued tokens and keeps them fresh, and mirrors the repositories of
authorized users into local storage.`,
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				logger.Errorf("Error displaying help: %v", err)
			}
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	if err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML configuration file")
	err = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	if err != nil {
		logger.Errorf("Error binding config flag: %v", err)
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSyncRepositoriesCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Silence printing the usage on error
	rootCmd.SilenceUsage = true

	return rootCmd
}

// services holds the components shared by the subcommands.
type services struct {
	cfg     *config.Config
	store   storage.Storage
	oauth   *oauth.Service
	gitee   *client.Client
	cleanup func()
}

func (s *services) Close() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

// loadConfig reads the file named by --config, the environment and bound flags.
func loadConfig() (*config.Config, error) {
	v := viper.GetViper()
	return config.Load(v, v.GetString("config"))
}

// newServices builds storage, the OAuth service and the REST client from cfg
// and registers the configured applications.
func newServices(ctx context.Context, cfg *config.Config) (*services, error) {
	httpClient, err := cfg.Gitee.HTTPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	store, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	oauthOpts := []oauth.Option{
		oauth.WithHTTPClient(httpClient),
		oauth.WithEndpoints(cfg.Gitee.Endpoints()),
	}
	if cfg.Gitee.RefreshDedup {
		oauthOpts = append(oauthOpts, oauth.WithRefreshDeduplication())
	}
	svc := oauth.NewService(store, store, oauthOpts...)
	api := client.New(svc, cfg.Gitee.ClientOptions(httpClient)...)

	s := &services{
		cfg:   cfg,
		store: store,
		oauth: svc,
		gitee: api,
		cleanup: func() {
			if err := store.Close(); err != nil {
				logger.Warnw("failed to close storage", "error", err)
			}
		},
	}

	if err := s.registerApplications(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *services) registerApplications(ctx context.Context) error {
	for i := range s.cfg.Applications {
		app, err := s.cfg.Applications[i].ToApplication()
		if err != nil {
			return fmt.Errorf("invalid application %s: %w", s.cfg.Applications[i].ID, err)
		}
		if err := s.store.SaveApplication(ctx, app); err != nil {
			return fmt.Errorf("failed to register application %s: %w", app.ID, err)
		}
		logger.Infow("registered application", "application_id", app.ID, "client_id", app.ClientID, "scopes", app.ScopeString())
	}
	return nil
}
