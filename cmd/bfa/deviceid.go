package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/config"
	"github.com/boddenberg/bpo-leadgen-bfa/internal/fingerprint"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const deviceIDRedisKey = "bfa:cli:device-id"

func defaultDeviceFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "bfa", "device.json")
}

func newDeviceIDCmd() *cobra.Command {
	var (
		file  string
		reset bool
	)
	cmd := &cobra.Command{
		Use:   "device-id",
		Short: "Print this machine's anonymous device id",
		Long: `Print the device id used to track this machine anonymously. The id is
generated from host signals on first use and stored in a JSON file, or in
Redis when REDIS_URL is set.

Examples:
  bfa device-id
  bfa device-id --reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			storage, closeFn, err := deviceStorage(file)
			if err != nil {
				return err
			}
			defer closeFn()

			p := fingerprint.NewProvider(fingerprint.HostCollector{}, storage, zap.NewNop())
			get := p.Get
			if reset {
				get = p.Reset
			}
			id, err := get(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", defaultDeviceFile(), "file that stores the device id")
	cmd.Flags().BoolVar(&reset, "reset", false, "discard the stored id and generate a new one")
	return cmd
}

func deviceStorage(file string) (fingerprint.Storage, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.RedisURL == "" {
		return fingerprint.FileStorage{Path: file}, func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	return fingerprint.RedisStorage{Client: rdb, Key: deviceIDRedisKey}, func() { _ = rdb.Close() }, nil
}
