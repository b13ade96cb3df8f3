package main

import (
	"context"
	"flag"
	"io"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tagren/internal/adapters/filesystem"
	mcpadapter "tagren/internal/adapters/mcp"
	"tagren/internal/adapters/sqlite"
	"tagren/internal/config"
	"tagren/internal/logging"
)

func main() {
	logFile := flag.String("log-file", "", "append logs to this file")
	noJournal := flag.Bool("no-journal", false, "do not expose the run journal")
	flag.Parse()

	config.LoadDotEnv()
	cfg := config.Load()

	// stdout carries the protocol
	logger, closeLog, err := logging.New(logging.Options{File: *logFile, Stdout: io.Discard})
	if err != nil {
		log.Fatalf("tagren-mcp: %v", err)
	}
	defer closeLog()

	tools := mcpadapter.PlanTools{
		FS:              filesystem.New(),
		Logger:          logger,
		CaseInsensitive: cfg.CaseInsensitive,
	}
	if !*noJournal {
		j, err := sqlite.Open(cfg.DataDir)
		if err != nil {
			logger.Warn("journal unavailable", "error", err)
		} else {
			defer j.Close()
			tools.Journal = j
		}
	}

	mcpServer := server.NewMCPServer(
		"tagren-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterNamingTools(mcpServer)
	mcpadapter.RegisterPlanTools(mcpServer, tools)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("tagren-mcp: %v", err)
	}
}
