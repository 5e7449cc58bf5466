// Command bookc compiles a declarative book definition into an
// H5P-shaped interactive courseware archive.
//
// Usage:
//
//	bookc build <definition.json> -o <out.h5p>
//	bookc watch <definition.json> -o <out.h5p>
//	bookc serve
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bookforge/bookc/internal/api"
	"github.com/bookforge/bookc/internal/config"
	"github.com/bookforge/bookc/internal/logger"
	"github.com/bookforge/bookc/internal/mcp"
	"github.com/bookforge/bookc/internal/watch"
	"github.com/bookforge/bookc/pkg/ai"
	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/catalog"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/media"
	"github.com/bookforge/bookc/pkg/orchestrator"

	"github.com/bookforge/bookc/handlers/accordion"
	"github.com/bookforge/bookc/handlers/aicrossword"
	"github.com/bookforge/bookc/handlers/aidragtext"
	"github.com/bookforge/bookc/handlers/aiessay"
	"github.com/bookforge/bookc/handlers/aiquiz"
	"github.com/bookforge/bookc/handlers/audio"
	"github.com/bookforge/bookc/handlers/blanks"
	"github.com/bookforge/bookc/handlers/crossword"
	"github.com/bookforge/bookc/handlers/dialogcards"
	"github.com/bookforge/bookc/handlers/dragtext"
	"github.com/bookforge/bookc/handlers/essay"
	"github.com/bookforge/bookc/handlers/flashcards"
	"github.com/bookforge/bookc/handlers/image"
	"github.com/bookforge/bookc/handlers/quiz"
	"github.com/bookforge/bookc/handlers/singlechoiceset"
	"github.com/bookforge/bookc/handlers/text"
	"github.com/bookforge/bookc/handlers/truefalse"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "build":
		err = cmdBuild(args)
	case "watch":
		err = cmdWatch(args)
	case "serve":
		err = cmdServe(args)
	case "version", "-v", "--version":
		fmt.Println("bookc dev")
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`bookc - template-free courseware compiler

Commands:
  build <definition.json> -o <out.h5p>   Compile once and exit
  watch <definition.json> -o <out.h5p>   Recompile on every definition change
  serve                                   Start the build-status API and MCP server
  version                                  Print the version
  help                                     Show this message`)
}

// parseOutputFlag scans args for "-o <path>" and returns the
// remaining positional args alongside it.
func parseOutputFlag(args []string) (positional []string, output string) {
	for i := 0; i < len(args); i++ {
		if args[i] == "-o" && i+1 < len(args) {
			output = args[i+1]
			i++
			continue
		}
		positional = append(positional, args[i])
	}
	return positional, output
}

// setup wires the orchestrator's dependencies. progress may be nil, in
// which case library downloads are not reported.
func setup(cfg *config.Config, definitionDir string, progress catalog.ProgressTracker) (*orchestrator.Orchestrator, error) {
	catalogRegistry := catalog.NewRegistry(cfg.Catalog.BaseURL, cfg.Catalog.CacheDir, &http.Client{
		Timeout: time.Duration(cfg.Catalog.DownloadTimeout) * time.Second,
	})
	if progress != nil {
		catalogRegistry.SetProgressTracker(progress)
	}

	loader := media.NewLoader(definitionDir, &http.Client{
		Timeout: time.Duration(cfg.Catalog.MediaTimeout) * time.Second,
	})

	generator, err := ai.NewGeminiGenerator(ai.GeminiConfig{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: time.Duration(cfg.AI.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("init AI generator: %w", err)
	}

	handlers := newHandlerRegistry()

	return orchestrator.New(catalogRegistry, handlers, loader, generator), nil
}

func newHandlerRegistry() *handler.Registry {
	r := handler.NewRegistry()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	must(r.Register(text.New()))
	must(r.Register(image.New()))
	must(r.Register(audio.New()))
	must(r.Register(dragtext.New()))
	must(r.Register(quiz.New()))
	must(r.Register(accordion.New()))
	must(r.Register(blanks.New()))
	must(r.Register(singlechoiceset.New()))
	must(r.Register(truefalse.New()))
	must(r.Register(essay.New()))
	must(r.Register(crossword.New()))
	must(r.Register(flashcards.New()))
	must(r.Register(dialogcards.New()))
	must(r.Register(aidragtext.New()))
	must(r.Register(aicrossword.New()))
	must(r.Register(aiquiz.New()))
	must(r.Register(aiessay.New()))

	return r
}

func cmdBuild(args []string) error {
	positional, output := parseOutputFlag(args)
	if len(positional) < 1 {
		return fmt.Errorf("usage: bookc build <definition.json> -o <out.h5p>")
	}
	definitionPath := positional[0]
	if output == "" {
		return fmt.Errorf("output path is required (-o <out.h5p>)")
	}

	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return err
	}
	logger.InitLogger(logger.SetupLogger(cfg))

	data, err := os.ReadFile(definitionPath)
	if err != nil {
		return fmt.Errorf("read definition: %w", err)
	}
	def, err := book.ParseDefinition(data)
	if err != nil {
		return err
	}

	progress := newCLIProgress()
	orch, err := setup(cfg, filepath.Dir(definitionPath), progress)
	if err != nil {
		return err
	}

	result, err := orch.Compile(context.Background(), def, output)
	progress.Wait()
	if err != nil {
		return err
	}

	fmt.Printf("compiled %q -> %s (%d libraries, %d media assets)\n",
		def.Title, result.OutputPath, result.LibraryCount, result.MediaCount)
	return nil
}

func cmdWatch(args []string) error {
	positional, output := parseOutputFlag(args)
	if len(positional) < 1 {
		return fmt.Errorf("usage: bookc watch <definition.json> -o <out.h5p>")
	}
	definitionPath := positional[0]
	if output == "" {
		return fmt.Errorf("output path is required (-o <out.h5p>)")
	}

	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return err
	}
	logger.InitLogger(logger.SetupLogger(cfg))

	orch, err := setup(cfg, filepath.Dir(definitionPath), nil)
	if err != nil {
		return err
	}

	w, err := watch.New(definitionPath, output, orch, 0)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return w.Run(ctx)
}

func cmdServe(args []string) error {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return err
	}
	logger.InitLogger(logger.SetupLogger(cfg))
	log := logger.GetLogger()

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	orch, err := setup(cfg, wd, nil)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.MCP.Enabled {
		go func() {
			mcpServer := mcp.NewServer(orch)
			if err := mcpServer.ServeStdio(); err != nil {
				log.Error().Err(err).Msg("mcp server exited")
			}
		}()
	}

	if !cfg.API.Enabled {
		log.Warn().Msg("API disabled in config; serving MCP only until interrupted")
		<-ctx.Done()
		return nil
	}

	tracker := api.NewTracker(orch)
	server := api.NewServer(cfg, tracker)
	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)

	httpServer := &http.Server{Addr: addr, Handler: server.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("build-status API listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
