// Command importer normalizes a sales, ecommerce or inventory export, prints
// the preview and uploads the accepted records in chunks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"vendite/backend/internal/cache"
	"vendite/backend/internal/config"
	"vendite/backend/internal/domain"
	"vendite/backend/internal/logger"
	"vendite/backend/internal/service"
	sqlitestore "vendite/backend/internal/store/sqlite"
	"vendite/backend/internal/uploader"
)

const maxPrintedErrors = 20

type options struct {
	file         string
	kind         domain.UploadKind
	server       string
	username     string
	password     string
	sqlitePath   string
	chunkSize    int
	chunkTimeout time.Duration
	dryRun       bool
	allowErrors  bool
}

func main() {
	cfg := config.Load()

	var opts options
	var kind string
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -kind <store-sales|ecommerce|inventory> -file <export> [-server URL -user NAME | -sqlite PATH]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.file, "file", "", "CSV or XLSX export to import")
	flag.StringVar(&kind, "kind", "", "Upload kind: store-sales, ecommerce or inventory")
	flag.StringVar(&opts.server, "server", "http://127.0.0.1:"+cfg.Port, "Backend base URL")
	flag.StringVar(&opts.username, "user", cfg.AdminUsername, "Username for the backend login")
	flag.StringVar(&opts.sqlitePath, "sqlite", "", "Import into a local SQLite store instead of a server")
	flag.IntVar(&opts.chunkSize, "chunk-size", cfg.UploadChunkSize, "Records per transmitted chunk")
	flag.DurationVar(&opts.chunkTimeout, "chunk-timeout", cfg.ChunkTimeout(), "Maximum wait per chunk")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Print the preview without uploading")
	flag.BoolVar(&opts.allowErrors, "allow-errors", false, "Upload the valid records even when some rows were rejected")
	flag.Parse()
	opts.kind = domain.UploadKind(kind)
	opts.password = os.Getenv("VENDITE_PASSWORD")

	// stdout carries the preview; logs go to stderr.
	log := logger.New(logger.Config{Env: cfg.Env, Level: cfg.LogLevel}).Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, log); err != nil {
		fmt.Fprintln(os.Stderr, uploader.UserMessage(err))
		os.Exit(1)
	}
}

type previewer interface {
	Preview(ctx context.Context, kind domain.UploadKind, filename string, data []byte) (domain.UploadPreview, error)
}

type servicePreviewer struct {
	svc *service.Service
}

func (p servicePreviewer) Preview(ctx context.Context, kind domain.UploadKind, filename string, data []byte) (domain.UploadPreview, error) {
	return p.svc.PreviewUpload(ctx, kind, filename, data)
}

func run(ctx context.Context, opts options, out io.Writer, log zerolog.Logger) error {
	if !opts.kind.Valid() {
		return fmt.Errorf("-kind must be store-sales, ecommerce or inventory")
	}
	if opts.file == "" {
		return fmt.Errorf("-file is required")
	}
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return err
	}

	var (
		pv previewer
		tx uploader.Transmitter
	)
	if opts.sqlitePath != "" {
		kv, err := sqlitestore.New(ctx, opts.sqlitePath)
		if err != nil {
			return fmt.Errorf("open %s: %w", opts.sqlitePath, err)
		}
		defer kv.Close()

		svc := service.New(kv, cache.NoopViewCache{}, 0, log)
		username := opts.username
		if username == "" {
			username = "importer"
		}
		ctx = service.WithActor(ctx, domain.Actor{Username: username, Role: domain.RoleAdmin})
		pv, tx = servicePreviewer{svc: svc}, uploader.NewServiceTransmitter(svc)
	} else {
		if opts.password == "" {
			return fmt.Errorf("VENDITE_PASSWORD must be set to log in to %s", opts.server)
		}
		client := uploader.NewHTTPTransmitter(opts.server, "")
		resp, err := client.Login(ctx, opts.username, opts.password)
		if err != nil {
			return err
		}
		log.Debug().Str("user", opts.username).Str("role", resp.Role).Msg("logged in")
		pv, tx = client, client
	}

	preview, err := pv.Preview(ctx, opts.kind, filepath.Base(opts.file), data)
	if err != nil {
		return err
	}
	rejected := printPreview(out, preview)

	if opts.dryRun {
		return nil
	}
	if rejected > 0 && !opts.allowErrors {
		return errors.New("il file contiene righe non valide: correggile o usa -allow-errors per caricare solo quelle valide")
	}

	coordinator := uploader.New(tx, opts.chunkSize, opts.chunkTimeout, log)
	batches := uploader.Batches(preview)
	for i, batch := range batches {
		// Each pass restarts at 0%, so the pass number is printed with it.
		pass := fmt.Sprintf("[%d/%d] %s", i+1, len(batches), batch.Kind)
		summary, err := coordinator.Upload(ctx, batch, func(p int) {
			fmt.Fprintf(out, "%s: %d%%\n", pass, p)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d salvati, %d duplicati saltati (%d blocchi)\n", pass, summary.SavedCount, summary.SkippedDuplicates, summary.Chunks)
	}
	return nil
}

// printPreview writes the normalization outcome and returns the number of rejected rows.
func printPreview(out io.Writer, p domain.UploadPreview) int {
	fmt.Fprintf(out, "%s (%s)\n", p.Filename, p.Kind)

	var errs, warnings []string
	switch {
	case p.StoreSales != nil:
		r := p.StoreSales
		fmt.Fprintf(out, "righe: %d, valide: %d\n", r.TotalRows, r.ValidRows)
		errs = r.Errors
	case p.Ecommerce != nil:
		r := p.Ecommerce
		fmt.Fprintf(out, "righe: %d, vendite: %d (%.2f), resi: %d (%.2f), duplicati: %d\n",
			r.TotalRows, r.ValidSalesRows, r.TotalSalesAmount, r.ValidReturnsRows, r.TotalReturnsAmount, r.SkippedDuplicates)
		errs = r.Errors
		for _, d := range r.Duplicates {
			warnings = append(warnings, fmt.Sprintf("Riga %d: %s", d.Row, d.Reason))
		}
	case p.Inventory != nil:
		r := p.Inventory
		fmt.Fprintf(out, "articoli: %d\n", r.ProcessedCount)
		errs, warnings = r.Errors, r.Warnings
	}

	printList(out, "errori", errs)
	printList(out, "avvisi", warnings)
	return len(errs)
}

func printList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d):\n", title, len(items))
	for i, item := range items {
		if i == maxPrintedErrors {
			fmt.Fprintf(out, "  ... e altri %d\n", len(items)-i)
			break
		}
		fmt.Fprintf(out, "  - %s\n", item)
	}
}
