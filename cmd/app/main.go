package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/context7"
	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

// loadConfig builds the effective configuration: defaults, then the
// YAML file when present, then the environment overrides the original
// tool honors.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	path := cmd.String("config")
	var err error
	if cmd.IsSet("config") {
		err = pkgconfig.Load(path, cfg)
	} else {
		err = pkgconfig.LoadIfPresent(path, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if key := os.Getenv("CLIENT_IP_ENCRYPTION_KEY"); key != "" {
		cfg.Context7.ClientIPKey = key
	}
	if key := os.Getenv("CONTEXT7_API_KEY"); key != "" {
		cfg.Context7.APIKey = key
	}
	return cfg, nil
}

func newLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// newService assembles a one-shot service rooted at root. withCache
// wires the search cache when the configuration enables it; commands
// that never touch it pass false and skip opening the database.
func newService(cfg *internal.Config, root string, withCache bool) (*docservice.Service, func(), error) {
	c := *cfg
	if !withCache {
		c.Search.Enabled = false
	}

	st, err := store.Open(root)
	if err != nil {
		return nil, nil, err
	}
	svc, _, db, err := internal.NewService(&c, st, newLogger(cfg))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if db != nil {
			db.Close()
		}
	}
	return svc, cleanup, nil
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("usage: ansuz search <query>")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg, cfg.Store.BaseDir, false)
	if err != nil {
		return err
	}
	defer cleanup()

	sr, err := svc.SearchRemote(ctx, query, cmd.String("client-ip"))
	if err != nil {
		return err
	}
	if len(sr.Results) == 0 {
		fmt.Println("No documentation libraries found matching your query.")
		return nil
	}
	fmt.Println(context7.FormatSearchResults(sr))
	return nil
}

func runFetch(ctx context.Context, cmd *cli.Command) error {
	libraryID := cmd.Args().First()
	if libraryID == "" {
		return fmt.Errorf("usage: ansuz fetch <library-id>")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	root := cfg.Store.BaseDir
	if dir := cmd.String("output-dir"); dir != "" {
		root = dir
	}
	svc, cleanup, err := newService(cfg, root, true)
	if err != nil {
		return err
	}
	defer cleanup()

	noSave := cmd.Bool("no-save")
	res, err := svc.Fetch(ctx, libraryID, docservice.FetchOptions{
		Topic:       cmd.String("topic"),
		Tokens:      int(cmd.Int("tokens")),
		ClientIP:    cmd.String("client-ip"),
		NoSave:      noSave,
		SyncRepo:    cmd.Bool("sync-repo"),
		RefreshRepo: cmd.Bool("refresh-repo"),
		SearchQuery: cmd.String("search-query"),
	})
	if err != nil {
		return err
	}

	if noSave {
		fmt.Print(res.Content)
		return nil
	}

	fmt.Println("Documentation saved successfully:")
	if res.Artifact != nil {
		fmt.Printf("  - File: %s\n", res.Artifact.FilePath)
	}
	switch res.RepoSync.Status {
	case models.RepoSynced:
		fmt.Printf("  - Repository: %s\n", res.RepoSync.Path)
	case models.RepoFailed:
		fmt.Printf("  - Repository clone failed: %s\n", res.RepoSync.Reason)
	case models.RepoSkipped:
		fmt.Printf("  - %s\n", res.RepoSync.Reason)
	}
	return nil
}

func runList(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg, cfg.Store.BaseDir, false)
	if err != nil {
		return err
	}
	defer cleanup()

	items, err := svc.List(cmd.String("dir"))
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No documentation downloaded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LIBRARY\tFILE\tSIZE\tFETCHED")
	for _, it := range items {
		fetched := it.ModifiedAt
		if !it.LastFetched.IsZero() {
			fetched = it.LastFetched
		}
		repo := ""
		if it.HasRepo {
			repo = "  +repo"
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f KB\t%s%s\n",
			it.LibraryID, it.FileName, float64(it.SizeBytes)/1024,
			fetched.Format("2006-01-02 15:04"), repo)
	}
	return w.Flush()
}

func runRead(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: ansuz read <file>")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg, cfg.Store.BaseDir, false)
	if err != nil {
		return err
	}
	defer cleanup()

	c, err := svc.Read(cmd.String("dir"), name, int(cmd.Int("max-chars")))
	if err != nil {
		return err
	}
	fmt.Print(c.Text)
	if c.Truncated {
		fmt.Fprintf(os.Stderr, "\n[truncated: %d of %d characters, raise --max-chars for more]\n",
			c.MaxChars, c.FullLength)
	}
	return nil
}

func runReconcile(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg, cfg.Store.BaseDir, false)
	if err != nil {
		return err
	}
	defer cleanup()

	rep, err := svc.Reconcile(cmd.String("dir"))
	if err != nil {
		return err
	}
	if rep.Clean() {
		fmt.Println("Index and directory agree.")
		return nil
	}
	for _, e := range rep.Orphaned {
		fmt.Printf("orphaned index row: %s (file %s is gone)\n", e.DisplayName, e.FilePath)
	}
	for _, f := range rep.Untracked {
		fmt.Printf("untracked file: %s\n", f)
	}
	return nil
}

func runLocalSearch(_ context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("usage: ansuz local-search <query>")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(cfg, cfg.Store.BaseDir, true)
	if err != nil {
		return err
	}
	defer cleanup()

	hits, err := svc.SearchLocal(query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No local matches.")
		return nil
	}
	for _, h := range hits {
		fmt.Printf("%s (%s)\n    %s\n", h.DisplayName, h.BaseName, h.Snippet)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	// Leftover arguments mean a mistyped subcommand, not a stdio
	// session.
	if cmd.Args().Len() > 0 {
		return fmt.Errorf("unknown command %q", cmd.Args().First())
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(internal.WithConfig(cfg))
}

func main() {
	clientIPFlag := &cli.StringFlag{
		Name:  "client-ip",
		Usage: "Client IP to forward (encrypted) to the upstream API",
	}
	dirFlag := &cli.StringFlag{
		Name:  "dir",
		Usage: "Documentation directory to inspect instead of the configured one",
	}

	cmd := &cli.Command{
		Name:        "ansuz",
		Usage:       "Local documentation cache and index for the Context7 API",
		Description: "Without a subcommand, ansuz speaks MCP over stdio so it can be registered directly as an agent tool server.",
		Action:      runMCP,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("ANSUZ_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search the remote library catalog",
				ArgsUsage: "<query>",
				Flags:     []cli.Flag{clientIPFlag},
				Action:    runSearch,
			},
			{
				Name:      "fetch",
				Usage:     "Fetch library documentation and add it to the knowledge base",
				ArgsUsage: "<library-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "topic", Usage: "Focus the documentation on one topic"},
					&cli.IntFlag{Name: "tokens", Usage: "Token budget for the documentation (0 leaves it to the API)"},
					&cli.BoolFlag{Name: "sync-repo", Usage: "Also clone the library's source repository"},
					&cli.BoolFlag{Name: "refresh-repo", Usage: "Re-clone the repository even when a clone exists"},
					&cli.StringFlag{Name: "search-query", Usage: "Search query to record in the index entry"},
					&cli.BoolFlag{Name: "no-save", Usage: "Print the documentation to stdout instead of saving it"},
					&cli.StringFlag{Name: "output-dir", Usage: "Save into this directory instead of the configured one"},
					clientIPFlag,
				},
				Action: runFetch,
			},
			{
				Name:   "list",
				Usage:  "List downloaded documentation",
				Flags:  []cli.Flag{dirFlag},
				Action: runList,
			},
			{
				Name:      "read",
				Usage:     "Print a downloaded documentation file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					dirFlag,
					&cli.IntFlag{Name: "max-chars", Usage: "Character budget (0 uses the default)"},
				},
				Action: runRead,
			},
			{
				Name:   "reconcile",
				Usage:  "Report drift between INDEX.md and the files on disk",
				Flags:  []cli.Flag{dirFlag},
				Action: runReconcile,
			},
			{
				Name:      "local-search",
				Usage:     "Full-text search over downloaded documentation",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of hits", Value: 20},
				},
				Action: runLocalSearch,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the documentation tools over MCP stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
