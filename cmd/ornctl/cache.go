package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dbRedis "github.com/fmhr12/ORN-Prognosis/internal/db/redis"
	"github.com/fmhr12/ORN-Prognosis/internal/repository/explcache"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the shared explanation cache",
	}
	cmd.AddCommand(newCachePurgeCmd(opts))
	return cmd
}

func newCachePurgeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every cached explanation, for all artifact versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if len(cfg.Cache.Addrs) == 0 {
				return errors.New("cache.addrs is not configured")
			}

			store, err := dbRedis.NewStore(dbRedis.Config{
				Addrs:    cfg.Cache.Addrs,
				Username: cfg.Cache.Username,
				Password: cfg.Cache.Password,
				DB:       cfg.Cache.DB,
			})
			if err != nil {
				return fmt.Errorf("connect cache: %w", err)
			}
			defer store.Close()

			ctx := cmd.Context()
			if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
				return fmt.Errorf("cache not ready: %w", err)
			}

			n, err := explcache.New(nil, store, 0, "", zap.NewNop()).Purge(ctx)
			if err != nil {
				return err //nolint:wrapcheck // already descriptive
			}
			fmt.Fprintf(opts.out, "purged %d cached explanations\n", n)
			return nil
		},
	}
}
