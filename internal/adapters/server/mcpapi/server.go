// Package mcpapi exposes process tracking as MCP tools over stdio.
package mcpapi

import (
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Hysas/procside/internal/app"
)

// Config captures MCP server identity and gate settings.
type Config struct {
	ServerName    string
	ServerVersion string
	Gates         app.GatesConfig
}

// Server hosts the MCP tool surface over a stdio transport.
type Server struct {
	mcpServer *mcpserver.MCPServer
}

// New builds an MCP server with the full process tool set registered.
func New(cfg Config, svc *app.Service) (*Server, error) {
	if svc == nil {
		return nil, errors.New("process service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerProcessTools(mcpSrv, svc)
	registerStepTools(mcpSrv, svc)
	registerRecordTools(mcpSrv, svc)
	registerReportTools(mcpSrv, svc, cfg.Gates)

	return &Server{mcpServer: mcpSrv}, nil
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	if s == nil || s.mcpServer == nil {
		return errors.New("mcp server is not configured")
	}
	return mcpserver.ServeStdio(s.mcpServer)
}

// normalizeConfig applies deterministic defaults to MCP server config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "procside"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "0.0.0-dev"
	}
	if len(cfg.Gates.Gates) == 0 {
		cfg.Gates = app.DefaultGatesConfig()
	}
	return cfg
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, app.ErrNoActiveProcess):
		return mcp.NewToolResultError("No process initialized. Use process_init first.")
	case errors.Is(err, app.ErrProcessNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, app.ErrVersionNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	default:
		return mcp.NewToolResultError(err.Error())
	}
}
