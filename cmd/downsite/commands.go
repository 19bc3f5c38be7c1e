package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hypergopher/downsite"
	"github.com/hypergopher/downsite/client"
	"github.com/hypergopher/downsite/config"
	"github.com/hypergopher/downsite/contentstore"
	"github.com/hypergopher/downsite/web"
)

const shutdownTimeout = 10 * time.Second

// cli carries the state shared by every command.
type cli struct {
	configPath string
	logLevel   string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "downsite",
		Short:         "A markdown blog with a JSON API and a content store client",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.logLevel != "" {
				cfg.Log.Level = c.logLevel
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			c.cfg = cfg
			c.logger = cfg.NewLogger(cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("DOWNSITE_CONFIG"), "path to a TOML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		c.serveCmd(),
		c.reindexCmd(),
		c.newCmd(),
		c.fetchCmd(),
		c.browseCmd(),
	)
	return root
}

func (c *cli) openSite(reindex bool) (*downsite.Site, error) {
	return downsite.New(downsite.Options{
		Authors:           c.cfg.Authors,
		MarkDir:           c.cfg.Content.MarkDir,
		DataDir:           c.cfg.Content.DataDir,
		FrontMatterFormat: downsite.FrontmatterFormat(c.cfg.Content.Frontmatter),
		Logger:            c.logger,
		Reindex:           reindex,
	})
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog, its API and its fragments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := c.openSite(c.cfg.Content.Reindex)
			if err != nil {
				return err
			}
			defer site.Close()

			server, err := web.New(site, web.Options{
				SiteName: c.cfg.Server.SiteName,
				BaseURL:  c.cfg.Server.BaseURL,
				PageSize: c.cfg.Content.PageSize,
				Logger:   c.logger,
			})
			if err != nil {
				return err
			}

			httpServer := &http.Server{
				Addr:              c.cfg.Server.Addr,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.logger.Info("listening", slog.String("addr", c.cfg.Server.Addr), slog.String("url", c.cfg.Server.BaseURL))
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}

			c.logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(ctx)
		},
	}
}

func (c *cli) reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the post and search indexes from the markdown files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := c.openSite(false)
			if err != nil {
				return err
			}
			defer site.Close()

			counts, err := site.Reindex()
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(counts))
			for k := range counts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", k, counts[k])
			}
			return nil
		},
	}
}

func (c *cli) newCmd() *cobra.Command {
	var (
		content    string
		categories []string
		tags       []string
		authors    []string
		summary    string
		draft      bool
		featured   bool
	)

	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create a blog post whose slug is derived from its title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := c.openSite(false)
			if err != nil {
				return err
			}
			defer site.Close()

			status := "published"
			if draft {
				status = "draft"
			}

			meta := &downsite.PostMeta{
				Name:       strings.Join(args, " "),
				Authors:    authors,
				Featured:   featured,
				Published:  time.Now().UTC().Truncate(time.Second),
				Status:     status,
				Summary:    summary,
				Visibility: "public",
				Taxonomies: map[string][]string{},
			}
			if len(categories) > 0 {
				meta.Taxonomies[downsite.TaxonomyCategories] = categories
			}
			if len(tags) > 0 {
				meta.Taxonomies[downsite.TaxonomyTags] = tags
			}

			slug, err := site.CreateArticle(content, meta)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), slug)
			return nil
		},
	}

	cmd.Flags().StringVarP(&content, "content", "c", "", "markdown body of the post")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "category, repeatable")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag, repeatable")
	cmd.Flags().StringSliceVar(&authors, "author", nil, "author username, repeatable")
	cmd.Flags().StringVar(&summary, "summary", "", "short summary")
	cmd.Flags().BoolVar(&draft, "draft", false, "save as a draft")
	cmd.Flags().BoolVar(&featured, "featured", false, "feature the post")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func (c *cli) newStore() (*contentstore.Store, error) {
	transport, err := contentstore.NewHTTPTransport(c.cfg.Client.BaseURL, contentstore.HTTPOptions{
		Headers: c.cfg.Client.Headers,
	})
	if err != nil {
		return nil, err
	}
	return contentstore.New(transport, c.cfg.StoreOptions(c.logger)), nil
}

func (c *cli) fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "fetch posts|categories|post <slug>",
		Short:     "Fetch content from the API into a content store and print it as JSON",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"posts", "categories", "post"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			var out any
			switch args[0] {
			case "posts":
				err = store.FetchPosts(ctx)
				out = store.Posts()
			case "categories":
				err = store.FetchCategories(ctx)
				out = store.Categories()
			case "post":
				if len(args) != 2 {
					return errors.New("fetch post needs a slug")
				}
				err = store.FetchPost(ctx, args[1])
				out = store.CurrentPost()
			default:
				return fmt.Errorf("unknown collection %q", args[0])
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func (c *cli) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <path>",
		Short: "Render a route of the blog as text through the content store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore()
			if err != nil {
				return err
			}
			defer store.Close()

			app, err := client.New(store, cmd.OutOrStdout(), c.logger)
			if err != nil {
				return err
			}
			return app.Navigate(cmd.Context(), args[0])
		},
	}
}
