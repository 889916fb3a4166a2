package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/peelpotato/fastbi/internal/registry"
	"github.com/peelpotato/fastbi/internal/reshape"
	"github.com/peelpotato/fastbi/internal/runtime"
	"github.com/peelpotato/fastbi/internal/security"
	"github.com/peelpotato/fastbi/internal/telemetry"
	"github.com/peelpotato/fastbi/internal/workbooks"
	"github.com/peelpotato/fastbi/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		useStdio        bool
		shutdownTimeout time.Duration
	)

	flag.BoolVar(&useStdio, "stdio", false, "Run server over stdio transport")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	logger := zlog.With().Str("service", "fastbi-server").Logger()
	ctx := logger.WithContext(context.Background())

	// Security: validate allow-list directories on startup (fail-safe on error)
	secMgr, err := security.NewManagerFromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("security: failed to initialize manager from env")
		fmt.Fprintln(os.Stderr, "invalid security configuration; set FASTBI_ALLOWED_DIRS")
		os.Exit(1)
	}
	if err := secMgr.ValidateConfig(); err != nil {
		logger.Error().Err(err).Msg("security: invalid allow-list configuration")
		fmt.Fprintln(os.Stderr, "no allowed directories configured; set FASTBI_ALLOWED_DIRS")
		os.Exit(1)
	}
	logger.Info().Strs("allowed_dirs", secMgr.AllowedDirectories()).Msg("security allow-list configured")

	limits := runtime.NewLimits(0, 0)
	runtimeController := runtime.NewController(limits)
	runtimeMW := runtime.NewMiddleware(runtimeController)

	manager := workbooks.NewManager(0, 0, runtimeController, nil)
	manager.SetValidator(secMgr)
	manager.Start()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := manager.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("workbooks: shutdown close failed")
		}
	}()

	locator := reshape.NewLocatorFromEnv()

	toolRegistry := registry.New()
	writeFilter := registry.NewWriteToolFilterFromEnv()
	tele := telemetry.NewHooks(logger)

	srv := server.NewMCPServer(
		"FastBI Excel Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(tele.ServerHooks()),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
		server.WithToolFilter(func(ctx context.Context, tools []mcp.Tool) []mcp.Tool { return writeFilter.FilterTools(ctx, tools) }),
	)

	registry.RegisterWorkbookTools(srv, toolRegistry, runtimeController.LimitsSnapshot(), manager)
	registry.RegisterChartTools(srv, toolRegistry, manager)
	registry.RegisterReshapeTools(srv, toolRegistry, manager, locator)

	logger.Info().
		Ctx(ctx).
		Str("version", version.Version()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_open_workbooks", limits.MaxOpenWorkbooks).
		Str("data_dir", locator.DataDir).
		Bool("stdio", useStdio).
		Msg("server bootstrap configured")

	if useStdio {
		tele.OnServerStart()
		defer tele.OnServerStop()
		if err := server.ServeStdio(srv); err != nil {
			// Use stderr for transport errors so clients don't misinterpret output
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintln(os.Stderr, "no transport selected; use --stdio to run over stdio")
	os.Exit(2)
}
