package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/logging"
	"github.com/ironsheep/docscan-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("docscan-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("docscan-mcp - MCP server for document detection and rectification")
			fmt.Println()
			fmt.Println("Usage: docscan-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  DOCSCAN_LOG_LEVEL=debug           Log level (debug, info, warn, error)")
			fmt.Println("  DOCSCAN_CHANNEL_ORDER=bgra        Default channel order of loaded images")
			fmt.Println("  DOCSCAN_OVERLAY_COLOR=#00FF00     Outline color for document_overlay")
			fmt.Println("  DOCSCAN_DETECT_<FIELD>=value      Detection defaults, e.g. DOCSCAN_DETECT_REFERENCE_HEIGHT=640")
			fmt.Println("  DOCSCAN_ENHANCE_<FIELD>=value     Enhancement defaults, e.g. DOCSCAN_ENHANCE_BLOCK_SIZE=21")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	// Logs go to stderr; stdout is for MCP protocol
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup failed: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	log.Debugw("starting docscan-mcp", "version", Version, "built", BuildTime, "commit", GitCommit)

	srv, err := server.New(cfg, log, Version)
	if err != nil {
		log.Fatalw("server setup failed", "error", err)
	}
	if err := srv.Run(); err != nil {
		log.Fatalw("server error", "error", err)
	}
}
