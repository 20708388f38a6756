/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


// Package cmd implements the storekit command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tomoncle/storekit/data"
	"github.com/tomoncle/storekit/database"
	"github.com/tomoncle/storekit/repository"
	"github.com/tomoncle/storekit/utils"
)

// defaultDBName is the SQLite file used when no config file is given.
const defaultDBName = "storekit.db"

type rootOptions struct {
	configPath string
	logLevel   string
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "storekit",
		Short: "Manage demo records through the storekit repositories",
		Long: `storekit drives the generic repositories and unit of work against a
configured database. Without --config it uses the SQLite file storekit.db,
subject to the DB_* environment overrides.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (trace|debug|info|warn|error), overrides the config file")

	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newDemoCmd(opts))
	return cmd
}

func (o *rootOptions) loadConfig() (*database.Config, error) {
	var cfg *database.Config
	if o.configPath != "" {
		loaded, err := database.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = database.DefaultConfig()
		cfg.ConnectionConfig.Type = "sqlite"
		cfg.ConnectionConfig.DBName = defaultDBName
	}
	if o.logLevel != "" {
		cfg.LoggingConfig.Level = o.logLevel
	}
	return cfg, nil
}

func (o *rootOptions) configureLogging(cmd *cobra.Command, cfg *database.Config) {
	utils.ConfigureLogOutput(cmd.ErrOrStderr())
	utils.ConfigureLogFormat(cfg.LoggingConfig.Format)
	utils.ConfigureLogLevel(cfg.LoggingConfig.Level)
}

// connect opens the global database, creating tables when asked to.
func (o *rootOptions) connect(cmd *cobra.Command, createTables bool) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	o.configureLogging(cmd, cfg)
	_, err = database.InitDatabaseWithOptions(cmd.Context(), cfg, createTables)
	return err
}

// withUnitOfWork connects, runs fn with a fresh unit of work and releases
// both afterwards.
func (o *rootOptions) withUnitOfWork(cmd *cobra.Command, fn func(ctx context.Context, uow *data.UnitOfWork) error) error {
	if err := o.connect(cmd, false); err != nil {
		return err
	}
	defer func() { _ = database.CloseDB() }()

	uow := data.NewUnitOfWork(database.GetDB(),
		repository.WithLogger(database.GetLogger()),
		repository.WithMetrics(database.GetMetrics()),
	)
	defer func() { _ = uow.Close() }()
	return fn(cmd.Context(), uow)
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the tables of every registered model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.connect(cmd, true); err != nil {
				return err
			}
			defer func() { _ = database.CloseDB() }()
			fmt.Fprintf(cmd.OutOrStdout(), "created %d table(s)\n", len(database.GetRegisteredModels()))
			return nil
		},
	}
}
