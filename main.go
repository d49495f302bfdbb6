package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gg"

	"auto_sketch_enhancer/analyzer"
	"auto_sketch_enhancer/composer"
	"auto_sketch_enhancer/config"
	"auto_sketch_enhancer/generator"
	"auto_sketch_enhancer/preview"
	"auto_sketch_enhancer/publisher"
	"auto_sketch_enhancer/server"
	"auto_sketch_enhancer/stage"
	"auto_sketch_enhancer/surface"
)

var verbose bool

type stringList []string

func (l *stringList) String() string     { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error { *l = append(*l, v); return nil }

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	configPath := flag.String("config", config.DefaultPath, "path to config.json")
	inPath := flag.String("in", "", "path to sketch image")
	outPath := flag.String("out", "", "output image path; extension follows the sketch format (default <output_dir>/<in name>-enhanced)")
	prompt := flag.String("prompt", "", "free-text prompt (recorded in the report)")
	var styles stringList
	flag.Var(&styles, "style", "style tag, repeatable (recorded in the report)")
	seed := flag.Uint64("seed", 0, "seed for element variation (default random)")
	writePDF := flag.Bool("pdf", false, "also write a PDF sheet")
	writeHTML := flag.Bool("html", false, "also write an HTML report")
	showPreview := flag.Bool("preview", false, "show the result inline in iTerm2")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	flag.BoolVar(&verbose, "v", false, "enable info logs")
	flag.Parse()

	seedSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})

	if verbose {
		gg.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var seedPtr *uint64
	if seedSet {
		seedPtr = seed
	}
	orch, err := buildPipeline(cfg, seedPtr, log.Default())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Web server mode
	if *serve {
		srv, err := server.New(orch, cfg, verbose, log.Default())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		if listen == "" {
			listen = ":8080"
		}
		log.Printf("Starting web server on %s", listen)
		if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "--in is required (or use --serve)")
		os.Exit(1)
	}
	raw, err := os.ReadFile(*inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	name := strings.TrimSuffix(filepath.Base(*inPath), filepath.Ext(*inPath)) + "-enhanced"
	if *outPath != "" {
		cfg.OutputDir = filepath.Dir(*outPath)
		name = strings.TrimSuffix(filepath.Base(*outPath), filepath.Ext(*outPath))
	}

	ctx := context.Background()
	if d := cfg.AnalysisTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	log.Printf("[cli] enhancing %s", *inPath)
	res := orch.Generate(ctx, base64.StdEncoding.EncodeToString(raw), *prompt, styles)
	if res.Fallback {
		log.Printf("[cli] enhancement failed, writing the original sketch")
	}

	report := publisher.Report{
		Title:       filepath.Base(*inPath),
		Description: res.Description,
		Prompt:      *prompt,
		Styles:      styles,
		Fallback:    res.Fallback,
		CreatedAt:   time.Now(),
		Original:    surface.Sketch{Data: raw, Format: surface.SniffFormat(raw)},
	}
	if report.Result, err = surface.ParseSketch(res.Images[0]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	p, err := publisher.New(cfg, nil, verbose, log.Default())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	out, err := p.Publish(ctx, publisher.Params{Name: name, Report: report, HTML: *writeHTML, PDF: *writePDF})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Printf("[cli] done image=%s html=%s pdf=%s remote=%s", out.ImagePath, out.HTMLPath, out.PDFPath, out.RemoteURL)

	if *showPreview {
		if preview.Supported(os.Stdout) {
			if err := preview.Image(os.Stdout, report.Result.Data, preview.Width(os.Stdout)); err != nil {
				log.Printf("[cli] preview: %v", err)
			}
		} else {
			log.Printf("[cli] preview needs iTerm2, skipped")
		}
	}
	if res.Description != "" {
		fmt.Println(res.Description)
	}
	fmt.Println(out.ImagePath)
}

func buildPipeline(cfg config.Config, seed *uint64, logger *log.Logger) (*generator.Orchestrator, error) {
	obs := stage.LogObserver(logger, verbose)

	factory, err := cfg.ClientFactory()
	if err != nil {
		return nil, err
	}
	a, err := analyzer.New(cfg.KeyProvider(), factory, analyzer.WithObserver(obs))
	if err != nil {
		return nil, err
	}

	opts := []composer.Option{composer.WithSize(cfg.CanvasSize), composer.WithObserver(obs)}
	if seed != nil {
		opts = append(opts, composer.WithSeed(*seed))
	}
	c, err := composer.New(surface.NewGGBackend(), opts...)
	if err != nil {
		return nil, err
	}
	return generator.New(a, c, generator.WithObserver(obs))
}
