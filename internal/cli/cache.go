package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zinefold/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the image measurement cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached image measurements",
		Args:  cobra.NoArgs,
		RunE:  c.runCacheClear,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print where measurements are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := configuredCacheLocation()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), loc)
			return nil
		},
	})
	return cmd
}

func (c *CLI) runCacheClear(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := newCache(ctx, false)
	if err != nil {
		return err
	}
	defer store.Close()

	clearer, ok := store.(cache.Clearer)
	if !ok {
		printInfo("Cache is disabled")
		return nil
	}
	n, err := clearer.Clear(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("clear cache: %w", err)
	case n == 0:
		printInfo("Cache is empty")
	default:
		printSuccess("Cleared %d cached measurements", n)
		printDetail("Location: %s", cacheLocation(store))
	}
	return nil
}

// configuredCacheLocation describes the backend newCache would open,
// without connecting to it.
func configuredCacheLocation() (string, error) {
	if os.Getenv(cache.RedisURLEnv) != "" {
		return redisLocation(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return dir, nil
}

// cacheLocation describes an open cache for display.
func cacheLocation(store cache.Cache) string {
	switch s := store.(type) {
	case *cache.FileCache:
		return s.Dir()
	case *cache.RedisCache:
		return redisLocation()
	default:
		return "disabled"
	}
}

func redisLocation() string {
	return fmt.Sprintf("redis (%s), prefix %s", cache.RedisURLEnv, cache.DefaultRedisPrefix)
}
