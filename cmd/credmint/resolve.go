// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/credmint/blockfrost"
	"github.com/blinklabs-io/credmint/database"
	"github.com/blinklabs-io/credmint/internal/config"
	"github.com/blinklabs-io/credmint/resolver"
)

type resolveFlags struct {
	policyId string
	stats    bool
}

func newResolver(
	cfg *config.Config,
	flags resolveFlags,
	logger *slog.Logger,
) (*resolver.Resolver, func(), error) {
	bfOpts := []blockfrost.ClientOptionFunc{
		blockfrost.WithNetwork(cfg.Network),
		blockfrost.WithProjectId(cfg.Blockfrost.ProjectId),
		blockfrost.WithTimeout(cfg.Blockfrost.Timeout),
		blockfrost.WithLogger(logger),
	}
	if cfg.Blockfrost.BaseURL != "" {
		bfOpts = append(bfOpts, blockfrost.WithBaseURL(cfg.Blockfrost.BaseURL))
	}
	client, err := blockfrost.New(bfOpts...)
	if err != nil {
		return nil, nil, err
	}
	opts := []resolver.ResolverOptionFunc{
		resolver.WithLogger(logger),
	}
	cleanup := func() {}
	if flags.stats {
		db, err := database.New(
			database.WithDriver(cfg.Database.Driver),
			database.WithDataDir(cfg.Database.DataDir),
			database.WithDsn(cfg.Database.Dsn),
			database.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, resolver.WithCourseStore(db))
		cleanup = func() {
			_ = db.Close()
		}
	}
	return resolver.New(blockfrost.NewLedgerAdapter(client), opts...), cleanup, nil
}

func resolveRun(
	ctx context.Context,
	out io.Writer,
	r *resolver.Resolver,
	txHash string,
	policyId string,
) error {
	var onChain *resolver.OnChainAsset
	var err error
	if policyId != "" {
		onChain, err = r.ResolveByPolicyAndTx(ctx, policyId, txHash)
	} else {
		onChain, err = r.ResolveByTx(ctx, txHash)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(onChain)
}

func resolveCommand() *cobra.Command {
	flags := resolveFlags{}
	cmd := &cobra.Command{
		Use:   "resolve <tx-hash>",
		Short: "Look up the certificate asset minted by a transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustConfig(cmd)
			// Keep stdout for the result
			logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
			r, cleanup, err := newResolver(cfg, flags, logger)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			defer cleanup()
			if err := resolveRun(
				cmd.Context(),
				cmd.OutOrStdout(),
				r,
				args[0],
				flags.policyId,
			); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVar(&flags.policyId, "policy", "", "only match assets under this policy id")
	cmd.Flags().BoolVar(&flags.stats, "stats", false, "add educator statistics from the database")
	return cmd
}
