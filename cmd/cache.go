package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/sourcerer/internal/cache"
	"github.com/spigell/sourcerer/internal/logger"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the candidate data cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache statistics as json",
	Run: func(_ *cobra.Command, _ []string) {
		withCache(func(c *cache.SmartCache, _ *zap.Logger) error {
			pretty, err := json.MarshalIndent(c.Stats(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(pretty))
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove expired cache entries",
	Run: func(_ *cobra.Command, _ []string) {
		withCache(func(c *cache.SmartCache, logger *zap.Logger) error {
			removed := c.PurgeExpired()
			logger.Info("purged expired cache entries", zap.Int("removed", removed))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func withCache(fn func(c *cache.SmartCache, logger *zap.Logger) error) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	smartCache, err := openCache(config.Cache, logger)
	if err != nil {
		logger.Fatal("opening the cache", zap.Error(err))
	}
	defer smartCache.Close()

	if err := fn(smartCache, logger); err != nil {
		logger.Fatal("cache command failed", zap.Error(err))
	}
}
