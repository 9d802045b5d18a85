// Manages the product gallery from the command line, against the same backend the site uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	sentrypkg "github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bkclothing/bk-site/env"
	"github.com/bkclothing/bk-site/service/gallery"
	"github.com/bkclothing/bk-site/service/logger"
	sentryutil "github.com/bkclothing/bk-site/service/sentry"
	"github.com/bkclothing/bk-site/util"
	"github.com/bkclothing/bk-site/validate"
)

const sentryFlushTimeout = 2 * time.Second

var (
	imageURL string
	category string
	title    string
)

var rootCmd = &cobra.Command{
	Use:           "galleryctl",
	Short:         "Manage the product gallery",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the gallery in display order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := newStore().List(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, items)
	},
}

var addCmd = &cobra.Command{
	Use:   "add --url URL --category CATEGORY [--title TITLE]",
	Short: "Add an item to the front of the gallery",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !validate.IsAbsoluteURL(imageURL) {
			return fmt.Errorf("--url must be an absolute http(s) URL")
		}
		c, err := parseCategory(category)
		if err != nil {
			return err
		}

		item, err := newStore().Add(cmd.Context(), gallery.NewItem{
			ImageURL: imageURL,
			Category: c,
			Title:    validate.SanitizeText(title),
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, item)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update ID [--title TITLE] [--category CATEGORY]",
	Short: "Change the title or category of an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in gallery.UpdateInput
		if cmd.Flags().Changed("title") {
			t := validate.SanitizeText(title)
			in.Title = &t
		}
		if cmd.Flags().Changed("category") {
			c, err := parseCategory(category)
			if err != nil {
				return err
			}
			in.Category = &c
		}

		item, found, err := newStore().Update(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		if !found {
			return gallery.ErrItemNotFound{ID: args[0]}
		}
		return printJSON(cmd, item)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Remove an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deleted, err := newStore().Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return gallery.ErrItemNotFound{ID: args[0]}
		}
		logger.For(cmd.Context()).Infof("deleted %s", args[0])
		return nil
	},
}

var reorderCmd = &cobra.Command{
	Use:   "reorder ID...",
	Short: "Set the display order; every item must be listed exactly once",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		ok, err := store.Reorder(cmd.Context(), args)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("order rejected: ids must list every gallery item exactly once")
		}

		items, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, items.IDs())
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Overwrite the active backend with the local seed file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := env.GetString("GALLERY_SEED_PATH")
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		items, err := gallery.Decode(data)
		if err != nil {
			return fmt.Errorf("seed file %s: %w", path, err)
		}

		if err := newStore().Adapter().Store(cmd.Context(), items); err != nil {
			return err
		}
		logger.For(cmd.Context()).Infof("seeded %d items from %s", len(items), path)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&imageURL, "url", "", "absolute image URL")
	addCmd.Flags().StringVar(&category, "category", "", "formal, casual or inners")
	addCmd.Flags().StringVar(&title, "title", "", "optional title")
	addCmd.MarkFlagRequired("url")
	addCmd.MarkFlagRequired("category")

	updateCmd.Flags().StringVar(&title, "title", "", "new title; empty clears it")
	updateCmd.Flags().StringVar(&category, "category", "", "formal, casual or inners")

	rootCmd.AddCommand(listCmd, addCmd, updateCmd, deleteCmd, reorderCmd, seedCmd)
}

func main() {
	setDefaults()
	logger.InitWithGCPDefaults()
	initSentry()

	ctx := sentryutil.NewSentryHubContext(context.Background(), sentrypkg.CurrentHub())
	defer sentryutil.RecoverAndRaise(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.For(ctx).Errorf("galleryctl: %s", err)
		sentryutil.ReportError(ctx, err)
		sentrypkg.Flush(sentryFlushTimeout)
		os.Exit(1)
	}
}

func newStore() *gallery.Store {
	return gallery.NewStoreFromEnv()
}

func parseCategory(s string) (gallery.Category, error) {
	c := gallery.Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category %q: must be one of %v", s, gallery.Categories)
	}
	return c, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setDefaults() {
	viper.SetDefault("ENV", "local")
	viper.SetDefault("GALLERY_PATH", gallery.DefaultFilePath)
	viper.SetDefault("GALLERY_SEED_PATH", gallery.DefaultFilePath)
	viper.SetDefault("GALLERY_KV_KEY", gallery.DefaultKey)
	viper.SetDefault("KV_REST_API_URL", "")
	viper.SetDefault("KV_REST_API_TOKEN", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_PASS", "")
	viper.SetDefault("SENTRY_DSN", "")
	viper.SetDefault("SENTRY_TRACES_SAMPLE_RATE", 1.0)
	viper.SetDefault("VERSION", "")
	viper.AutomaticEnv()

	util.LoadEnvFile(util.ResolveEnvFile("galleryctl", viper.GetString("ENV")))
}

func initSentry() {
	if env.GetString("ENV") == "local" {
		logger.For(nil).Info("skipping sentry init")
		return
	}

	logger.For(nil).Info("initializing sentry...")

	err := sentrypkg.Init(sentrypkg.ClientOptions{
		Dsn:              env.GetString("SENTRY_DSN"),
		Environment:      env.GetString("ENV"),
		TracesSampleRate: env.GetFloat64("SENTRY_TRACES_SAMPLE_RATE"),
		Release:          env.GetString("VERSION"),
		AttachStacktrace: true,
		BeforeSend:       sentryutil.ScrubEventHeaders,
	})

	if err != nil {
		logger.For(nil).Fatalf("failed to start sentry: %s", err)
	}
}
