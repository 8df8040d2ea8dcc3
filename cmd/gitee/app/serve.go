// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tourze/gitee-oauth/pkg/api"
	"github.com/tourze/gitee-oauth/pkg/logger"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the OAuth HTTP server",
		Long: `Start the HTTP server exposing the connect and callback endpoints of the
Gitee authorization code flow. Applications listed in the configuration file
are registered in storage before the server starts accepting requests.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("address", api.DefaultAddress, "Address to listen on")
	if err := viper.BindPFlag("server.address", cmd.Flags().Lookup("address")); err != nil {
		logger.Errorf("Error binding address flag: %v", err)
	}

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
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

	router := api.NewRouter(cfg.Server, svc.oauth, svc.store, svc.store)
	return api.ListenAndServe(ctx, cfg.Server, router)
}
