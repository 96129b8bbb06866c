package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourorg/botapigen/internal/catalogue"
	"github.com/yourorg/botapigen/internal/config"
	"github.com/yourorg/botapigen/internal/fetch"
	"github.com/yourorg/botapigen/internal/filter"
	"github.com/yourorg/botapigen/internal/generator"
	"github.com/yourorg/botapigen/internal/server"
	"github.com/yourorg/botapigen/internal/store"
	"github.com/yourorg/botapigen/pkg/types"
)

const defaultConfigContent = `source:
  url: "https://core.telegram.org/bots/api"
  base_url: ""
  content_id: "dev_page_content"
  timeout_seconds: 60
  max_retries: 3

input:
  html: ""
  catalogue: ""

output:
  path: ""
  format: "typescript"
  class_name: "AbstractApi"

pipeline:
  concurrency: 8

filter:
  include: []
  exclude: []

store:
  path: "~/.botapigen/botapigen.db"

server:
  host: "127.0.0.1"
  port: 3000

log:
  level: "info"
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every command loads first.
type app struct {
	cfgPath string
	debug   bool
	cfg     *config.Config
	logger  *slog.Logger
}

func (a *app) load() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) openStore() (*store.SQLiteStore, error) {
	if err := a.cfg.ValidateStore(); err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(a.cfg.Store.Path)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "botapigen",
		Short:         "Generate TypeScript declarations from the Telegram Bot API reference",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init" {
				return nil
			}
			return a.load()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug output")

	root.AddCommand(newInitCmd(a))
	root.AddCommand(newDownloadCmd(a))
	root.AddCommand(newGenerateCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newDeleteCmd(a))
	root.AddCommand(newServeCmd(a))

	return root
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize ~/.botapigen directory and default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := a.cfgPath
			if cfgFile == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				cfgFile = p
			}
			if err := os.MkdirAll(filepath.Dir(cfgFile), 0o755); err != nil {
				return err
			}
			if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
				if err := os.WriteFile(cfgFile, []byte(defaultConfigContent), 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "created", cfgFile)
			} else if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "exists", cfgFile)
			} else {
				return err
			}

			if err := a.load(); err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "database ready", a.cfg.Store.Path)
			return nil
		},
	}
}

func newDownloadCmd(a *app) *cobra.Command {
	var outPath, markdownPath string
	var save bool
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the reference page and extract its content",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			client := &fetch.Client{
				URL:        a.cfg.Source.URL,
				Timeout:    time.Duration(a.cfg.Source.TimeoutSeconds) * time.Second,
				MaxRetries: a.cfg.Source.MaxRetries,
				Logger:     a.logger,
			}
			page, err := client.Fetch(ctx)
			if err != nil {
				return err
			}
			fragment, err := fetch.Content(page, a.cfg.Source.ContentID)
			if err != nil {
				return err
			}
			a.logger.Info("downloaded reference", "url", a.cfg.Source.URL, "bytes", len(fragment))

			if err := writeOutput(cmd.OutOrStdout(), outPath, []byte(fragment)); err != nil {
				return err
			}
			if markdownPath != "" {
				md, err := fetch.Markdown(fragment)
				if err != nil {
					return err
				}
				if err := writeOutput(cmd.OutOrStdout(), markdownPath, []byte(md)); err != nil {
					return err
				}
			}
			if save {
				s, err := a.openStore()
				if err != nil {
					return err
				}
				defer s.Close()
				snap, err := s.SaveSnapshot(a.cfg.Source.URL, fragment)
				if err != nil {
					return err
				}
				a.logger.Info("snapshot saved", "id", snap.ID, "hash", snap.ContentHash)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write the content fragment to this file instead of stdout")
	cmd.Flags().StringVar(&markdownPath, "markdown", "", "also write a markdown preview to this file")
	cmd.Flags().BoolVar(&save, "save", false, "store the fragment as a snapshot")
	return cmd
}

func newGenerateCmd(a *app) *cobra.Command {
	var htmlPath, snapshotID, cataloguePath, format, outPath string
	var include, exclude []string
	var record bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate declarations from a reference document and a catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if htmlPath == "" {
				htmlPath = a.cfg.Input.HTML
			}
			if cataloguePath == "" {
				cataloguePath = a.cfg.Input.Catalogue
			}
			if format == "" {
				format = a.cfg.Output.Format
			}
			if outPath == "" {
				outPath = a.cfg.Output.Path
			}
			if cataloguePath == "" {
				return errors.New("a catalogue is required (--catalogue or input.catalogue)")
			}
			if snapshotID != "" && cmd.Flags().Changed("html") {
				return errors.New("--html and --snapshot are mutually exclusive")
			}
			if record && snapshotID == "" {
				return errors.New("--record needs --snapshot")
			}
			a.cfg.Output.Format = format
			a.cfg.Output.Path = outPath
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			if err := a.cfg.ValidateOutput(); err != nil {
				return err
			}

			cat, err := catalogue.Load(cataloguePath)
			if err != nil {
				return err
			}
			selection := a.cfg.Filter
			if cmd.Flags().Changed("only") {
				selection.Include = include
			}
			if cmd.Flags().Changed("skip") {
				selection.Exclude = exclude
			}
			cat = filter.Apply(cat, selection)

			var st *store.SQLiteStore
			var html string
			switch {
			case snapshotID != "":
				st, err = a.openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				snap, err := st.GetSnapshot(snapshotID)
				if err != nil {
					return err
				}
				html = snap.HTML
			case htmlPath != "":
				data, err := readInput(cmd.InOrStdin(), htmlPath)
				if err != nil {
					return err
				}
				html = string(data)
			default:
				return errors.New("a document is required (--html, --snapshot or input.html)")
			}

			res, err := generator.Generate(html, cat, generator.Options{
				BaseURL:     a.cfg.Source.LinkBase(),
				Concurrency: a.cfg.Pipeline.Concurrency,
				Format:      format,
				ClassName:   a.cfg.Output.ClassName,
			}, func(stage string) { a.logger.Debug(stage) })
			if err != nil {
				return err
			}
			logDiagnostics(a.logger, res.Schema.Diagnostics)

			if err := writeOutput(cmd.OutOrStdout(), outPath, res.Output); err != nil {
				return err
			}
			if record {
				run, err := generator.Record(st, snapshotID, cataloguePath, format, res)
				if err != nil {
					return err
				}
				a.logger.Info("run recorded", "id", run.ID, "status", run.Status, "diagnostics", run.DiagnosticCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&htmlPath, "html", "", "reference HTML file, - for stdin")
	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "stored snapshot id to use as the reference")
	cmd.Flags().StringVar(&cataloguePath, "catalogue", "", "catalogue file (.json, .yaml)")
	cmd.Flags().StringVar(&format, "format", "", "output format: typescript, json, markdown, openapi")
	cmd.Flags().StringVar(&outPath, "out", "", "output file, stdout when empty")
	cmd.Flags().StringSliceVar(&include, "only", nil, "generate only entries matching these name patterns")
	cmd.Flags().StringSliceVar(&exclude, "skip", nil, "skip entries matching these name patterns")
	cmd.Flags().BoolVar(&record, "record", false, "store the run and its diagnostics")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			snaps, err := s.ListSnapshots()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSOURCE\tSIZE\tFETCHED")
			for _, snap := range snaps {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", snap.ID, snap.Source, snap.Size, snap.FetchedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var snapshotID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a snapshot and its runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			snap, err := s.GetSnapshot(snapshotID)
			if err != nil {
				return err
			}
			runs, err := s.ListRuns(snap.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:      %s\nsource:  %s\nhash:    %s\nsize:    %d\nfetched: %s\n",
				snap.ID, snap.Source, snap.ContentHash, snap.Size, snap.FetchedAt.Format(time.RFC3339))
			if len(runs) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tFORMAT\tSTATUS\tTYPES\tMETHODS\tDIAGNOSTICS\tCATALOGUE")
			for _, r := range runs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n", r.ID, r.Format, r.Status, r.TypeCount, r.MethodCount, r.DiagnosticCount, r.Catalogue)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "snapshot id")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var snapshotID string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a snapshot with its runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.DeleteSnapshot(snapshotID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", snapshotID)
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "snapshot id")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var host, cataloguePath string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API over stored snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			if cataloguePath == "" {
				cataloguePath = a.cfg.Input.Catalogue
			}
			var cat types.Catalogue
			if cataloguePath != "" {
				var err error
				if cat, err = catalogue.Load(cataloguePath); err != nil {
					return err
				}
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			srv, err := server.New(a.cfg, s, cat)
			if err != nil {
				return err
			}
			addr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
			a.logger.Info("listening", "addr", "http://"+addr, "types", len(cat.Types), "methods", len(cat.Methods))
			return srv.ListenAndServe(addr)
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "server host")
	cmd.Flags().IntVar(&port, "port", 3000, "server port")
	cmd.Flags().StringVar(&cataloguePath, "catalogue", "", "catalogue used by the render endpoint")
	return cmd
}

func logDiagnostics(logger *slog.Logger, diags []types.Diagnostic) {
	for _, d := range diags {
		logger.Warn("diagnostic", "kind", string(d.Kind), "entity", d.Entity, "message", d.Message)
	}
	if len(diags) > 0 {
		logger.Info("generation finished with diagnostics", "count", len(diags))
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
