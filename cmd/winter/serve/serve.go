// Package servecmder provides the serve command, which runs the HTTP API
// and the MCP endpoint.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/winter/api"
	"github.com/papercomputeco/winter/api/mcp"
	commoncmder "github.com/papercomputeco/winter/cmd/winter/common"
	"github.com/papercomputeco/winter/pkg/config"
	"github.com/papercomputeco/winter/pkg/logger"
)

const serveLongDesc string = `Run the winter API server.

Serves the conversation API under /v1 and, unless --no-mcp is set, an MCP
endpoint at /mcp exposing the search_history and recent_turns tools to
agents. The server shares one conversation store across all clients.

Examples:
  winter serve
  winter serve --listen :9000
  winter serve --log-file winter.log
  winter serve --storage postgres --no-mcp`

const serveShortDesc string = "Run the winter API server"

var serveFlagKeys = slices.Concat(config.StorageFlagKeys, []string{
	config.FlagLLMTarget,
	config.FlagLLMModel,
	config.FlagRetrievalLimit,
	config.FlagProject,
	config.FlagAPIListen,
})

type serveCommander struct {
	noMCP   bool
	logFile string
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddFlags(cmd, config.StandardFlags, serveFlagKeys)
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Disable the /mcp endpoint")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON log records to this file")

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := commoncmder.NewServerLogger(cmd, cmd.ErrOrStderr())
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		log = logger.Multi(log, commoncmder.NewFileLogger(cmd, f))
	}

	a, err := commoncmder.OpenApp(ctx, cmd, serveFlagKeys, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	apiConfig := api.Config{
		ListenAddr: a.Config.API.Listen,
	}

	if !c.noMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			History: a.Orchestrator,
			Logger:  log,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		apiConfig.MCPHandler = mcpServer.Handler()
	}

	server := api.NewServer(apiConfig, a.Orchestrator, log)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Info("shutting down", "cause", context.Cause(ctx))
		return server.Shutdown()
	}
}
