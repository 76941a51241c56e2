package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"vitrina/internal/api"
	"vitrina/internal/catalog"
	"vitrina/internal/config"
	"vitrina/internal/exporter"
	"vitrina/internal/importer"
	"vitrina/internal/listener"
	"vitrina/internal/observability"
	"vitrina/internal/pipeline"
	"vitrina/internal/render"
	"vitrina/internal/share"
	gmaildrafts "vitrina/internal/share/gmail"
	imapdrafts "vitrina/internal/share/imap"
	"vitrina/internal/storage"
	"vitrina/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	must(err)
	defer logger.Sync()

	store, db, err := openStore(cfg)
	must(err)
	if db != nil {
		defer db.Close()
	}

	session := pipeline.NewSession(store, logger)
	ex := newExporter(cfg, db)
	ctx := context.Background()

	cmd := os.Args[1]
	switch cmd {
	case "catalog:show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		asJSON := fs.Bool("json", false, "print the normalized catalog as JSON")
		_ = fs.Parse(os.Args[2:])
		turn, err := session.Current(ctx)
		must(err)
		if *asJSON {
			blob, err := catalog.MarshalTree(turn.Catalog)
			must(err)
			os.Stdout.Write(blob)
			return
		}
		c := turn.Catalog
		fmt.Printf("%s (version=%s)\n", c.Config.BusinessName, util.FirstNonEmpty(turn.Version, "none"))
		for _, cat := range c.Categories {
			marker := " "
			if cat.ID == c.CurrentCategory {
				marker = "*"
			}
			fmt.Printf("%s %s %s [%s] products=%d\n", marker, cat.Icon, cat.Name, cat.ID, len(c.Products[cat.ID]))
		}
	case "catalog:reconcile":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		in := fs.String("in", "", "catalog JSON file to normalize (default: the stored catalog)")
		out := fs.String("out", "", "output path (default: stdout)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*in) == "" {
			turn, err := session.Update(ctx, "reconcile", func(ed *catalog.Editor) error { return nil })
			must(err)
			fmt.Printf("stored catalog normalized version=%s categories=%d products=%d\n", turn.Version, len(turn.Catalog.Categories), turn.Catalog.ProductCount())
			return
		}
		f, err := os.Open(*in)
		must(err)
		tree, err := catalog.DecodeTree(f)
		_ = f.Close()
		must(err)
		blob, err := catalog.MarshalTree(catalog.Reconcile(tree))
		must(err)
		if strings.TrimSpace(*out) == "" {
			os.Stdout.Write(blob)
			return
		}
		must(os.WriteFile(*out, blob, 0o644))
		fmt.Printf("normalized catalog written to %s\n", *out)
	case "category:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "category name")
		icon := fs.String("icon", "", "emoji icon")
		description := fs.String("description", "", "short description")
		_ = fs.Parse(os.Args[2:])
		var id string
		turn, err := session.Update(ctx, cmd, func(ed *catalog.Editor) error {
			var err error
			id, err = ed.AddCategory(catalog.CategoryInput{Name: *name, Icon: *icon, Description: *description})
			return err
		})
		must(err)
		fmt.Printf("category added id=%s version=%s\n", id, turn.Version)
	case "category:delete":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "category id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			must(fmt.Errorf("--id is required"))
		}
		turn, err := session.Update(ctx, cmd, func(ed *catalog.Editor) error {
			return ed.DeleteCategory(*id)
		})
		must(err)
		fmt.Printf("category deleted id=%s version=%s\n", *id, turn.Version)
	case "product:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		categoryID := fs.String("category", "", "category id (default: selected category)")
		name := fs.String("name", "", "product name")
		price := fs.String("price", "", "price, e.g. 45000 or \"$ 45.000 c/u\"")
		short := fs.String("short", "", "short description")
		long := fs.String("long", "", "long description")
		features := fs.String("features", "", "features separated by ;")
		specs := fs.String("specs", "", "specs as Label: value lines separated by ;")
		image := fs.String("image", "", "image URL")
		icon := fs.String("icon", "", "emoji icon")
		_ = fs.Parse(os.Args[2:])
		in := catalog.ProductInput{
			Name:      *name,
			ShortDesc: *short,
			LongDesc:  *long,
			Price:     *price,
			Features:  splitList(*features),
			Specs:     strings.Join(splitList(*specs), "\n"),
			Image:     *image,
			Icon:      *icon,
		}
		var id string
		turn, err := session.Update(ctx, cmd, func(ed *catalog.Editor) error {
			var err error
			id, err = ed.AddProduct(*categoryID, in)
			return err
		})
		must(err)
		fmt.Printf("product added id=%s version=%s\n", id, turn.Version)
	case "product:delete":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "product id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			must(fmt.Errorf("--id is required"))
		}
		turn, err := session.Update(ctx, cmd, func(ed *catalog.Editor) error {
			return ed.DeleteProduct(*id)
		})
		must(err)
		fmt.Printf("product deleted id=%s version=%s\n", *id, turn.Version)
	case "export:html", "export:json", "export:xlsx", "export:all":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		stamp := fs.String("stamp", exporter.Stamp(time.Now()), "timestamp used in file names")
		_ = fs.Parse(os.Args[2:])
		var formats []string
		if format := strings.TrimPrefix(cmd, "export:"); format != "all" {
			formats = []string{format}
		}
		turn, err := session.Current(ctx)
		must(err)
		res, err := ex.Write(ctx, turn.Catalog, *stamp, formats...)
		must(err)
		for _, format := range exporter.Formats {
			if path, ok := res.Files[format]; ok {
				fmt.Printf("exported %s to %s\n", format, path)
			}
		}
	case "import:json", "import:xlsx", "import:pdf", "import:text", "import:html":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "input file path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		kind := strings.TrimPrefix(cmd, "import:")
		if kind == "json" {
			f, err := os.Open(*file)
			must(err)
			turn, err := session.ImportJSON(ctx, f)
			_ = f.Close()
			must(err)
			fmt.Printf("catalog replaced version=%s categories=%d products=%d\n", turn.Version, len(turn.Catalog.Categories), turn.Catalog.ProductCount())
			return
		}
		content, err := os.ReadFile(*file)
		must(err)
		var report pipeline.ImportReport
		if kind == string(importer.KindHTML) {
			report, err = session.ImportHTML(ctx, content, cfg.ImportMatchThreshold)
		} else {
			report, err = session.ImportDocument(ctx, importer.Kind(kind), content, cfg.ImportMatchThreshold)
		}
		must(err)
		if report.Restored {
			fmt.Printf("exported catalog restored from %s products=%d version=%s\n", filepath.Base(*file), report.Added, report.Version)
			return
		}
		fmt.Printf("import done lines=%d matched=%d added=%d updated=%d categories=%d version=%s\n",
			report.Lines, report.Matched, report.Added, report.Updated, report.CategoriesCreated, report.Version)
	case "share":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.ShareProvider, "gmail|imap")
		to := fs.String("to", cfg.MailTo, "recipient (default: sender)")
		subject := fs.String("subject", "", "subject line")
		_ = fs.Parse(os.Args[2:])
		must(cfg.Require("MAIL_FROM", cfg.MailFrom))
		drafts, err := makeDraftStore(ctx, cfg, *provider)
		must(err)
		turn, err := session.Current(ctx)
		must(err)
		draftID, err := share.Share(ctx, drafts, ex, turn.Catalog, share.Message{From: cfg.MailFrom, To: *to, Subject: *subject})
		must(err)
		fmt.Printf("draft saved provider=%s id=%s\n", *provider, draftID)
	case "watch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		withShare := fs.Bool("share", cfg.WatchShare, "also save a mail draft for every new version")
		_ = fs.Parse(os.Args[2:])
		runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		svc, err := newListener(runCtx, cfg, session, ex, logger, *withShare)
		must(err)
		must(svc.Run(runCtx))
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.HTTPAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		must(serve(*addr, api.NewServer(session, ex, cfg.ImportMatchThreshold, logger), logger))
	default:
		usage()
		os.Exit(1)
	}
}

func openStore(cfg config.Config) (storage.Store, *storage.DB, error) {
	switch cfg.StoreDriver {
	case config.DriverFile:
		return storage.NewFileStore(cfg.CatalogFile), nil, nil
	case config.DriverRemote:
		if err := cfg.Require("REMOTE_URL", cfg.RemoteURL); err != nil {
			return nil, nil, err
		}
		return storage.NewRemoteStore(cfg), nil, nil
	default:
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	}
}

func newExporter(cfg config.Config, db *storage.DB) *exporter.Exporter {
	prices := render.NewPriceFormatter(cfg.PriceLocale, cfg.CurrencyCode, cfg.CurrencySymbol)
	var meta exporter.MetadataWriter
	if db != nil {
		meta = db
	}
	return exporter.New(cfg.OutputDir, prices, meta)
}

func newListener(ctx context.Context, cfg config.Config, session *pipeline.Session, ex *exporter.Exporter, logger *zap.Logger, withShare bool) (*listener.Service, error) {
	opts := listener.Options{
		Interval: time.Duration(cfg.WatchIntervalSec) * time.Second,
		Logger:   logger.Named("listener"),
		Message:  share.Message{From: cfg.MailFrom, To: cfg.MailTo},
	}
	if withShare {
		if err := cfg.Require("MAIL_FROM", cfg.MailFrom); err != nil {
			return nil, err
		}
		drafts, err := makeDraftStore(ctx, cfg, cfg.ShareProvider)
		if err != nil {
			return nil, err
		}
		opts.Drafts = drafts
	}
	return listener.NewService(session, ex, opts), nil
}

func makeDraftStore(ctx context.Context, cfg config.Config, provider string) (share.DraftStore, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmaildrafts.NewConnector(ctx, cfg)
	case "imap":
		return imapdrafts.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported share provider: %s", provider)
	}
}

func serve(addr string, srv *api.Server, logger *zap.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverLogger := logger.Named("http").With(zap.String("addr", addr))
	errCh := make(chan error, 1)
	go func() {
		serverLogger.Info("vitrina api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	serverLogger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func splitList(value string) []string {
	out := []string{}
	for _, item := range strings.Split(value, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func usage() {
	fmt.Println("usage: vitrina <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:show [--json]")
	fmt.Println("  catalog:reconcile [--in=catalog.json] [--out=normalized.json]")
	fmt.Println("  category:add --name=Ropa [--icon=👕] [--description=...]")
	fmt.Println("  category:delete --id=ropa")
	fmt.Println("  product:add --name=... [--category=ropa] [--price=45000] [--features=a;b] [--specs=\"Talla: M;Color: azul\"]")
	fmt.Println("  product:delete --id=prod-camisa")
	fmt.Println("  export:html|export:json|export:xlsx|export:all [--stamp=20060102-150405]")
	fmt.Println("  import:json|import:xlsx|import:pdf|import:text|import:html --file=...")
	fmt.Println("  share [--provider=gmail|imap] [--to=...] [--subject=...]")
	fmt.Println("  watch [--share]")
	fmt.Println("  serve [--addr=:8080]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
