package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/telelab/internal/logging"
	"github.com/aretw0/telelab/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SnapshotURI is the resource holding the open workflow's snapshot.
const SnapshotURI = "telelab://workflow/snapshot"

// ErrNoWorkflow is returned by workflow tools before open_experiment.
var ErrNoWorkflow = errors.New("no experiment is open")

// Workflow is the part of the workflow controller driven by the tools.
type Workflow interface {
	Setup(ctx context.Context) error
	Start(ctx context.Context) error
	Restart(ctx context.Context) error
	Send(ctx context.Context) error
	Snapshot() domain.Snapshot
	Close() error
}

// Opener loads an experiment and returns an unconfigured workflow.
type Opener func(ctx context.Context, experimentID int) (Workflow, error)

// Relays switches the device relays.
type Relays interface {
	Toggle(ctx context.Context, relay int) (bool, error)
	Relays() []bool
}

// Server exposes one telelab workflow at a time as MCP tools.
type Server struct {
	open      Opener
	relays    Relays
	catalog   domain.Catalog
	version   string
	logger    *slog.Logger
	mcpServer *server.MCPServer

	mu      sync.Mutex
	current Workflow
}

// Option configures a Server.
type Option func(*Server)

// WithRelays enables the toggle_relay tool.
func WithRelays(r Relays) Option {
	return func(s *Server) {
		s.relays = r
	}
}

// WithCatalog replaces the catalog returned by list_modules.
func WithCatalog(c domain.Catalog) Option {
	return func(s *Server) {
		s.catalog = c
	}
}

// WithVersion sets the version announced to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger configures a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(open Opener, opts ...Option) *Server {
	s := &Server{
		open:    open,
		catalog: domain.DefaultCatalog(),
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("telelab-mcp", s.version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s.mcpServer.AddTools(s.Tools()...)
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close closes the open workflow, if any.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}

// Tools returns every tool with its handler.
func (s *Server) Tools() []server.ServerTool {
	tools := []server.ServerTool{
		{
			Tool: mcp.NewTool("list_modules",
				mcp.WithDescription("List the selectable modules and their experiment numbers."),
			),
			Handler: s.handleListModules,
		},
		{
			Tool: mcp.NewTool("open_experiment",
				mcp.WithDescription("Load an experiment descriptor. Closes the previously open experiment."),
				mcp.WithNumber("experiment", mcp.Required(), mcp.Min(1), mcp.Description("Experiment number")),
				mcp.WithOutputSchema[domain.Snapshot](),
			),
			Handler: mcp.NewStructuredToolHandler(s.handleOpen),
		},
		s.operation("setup_device", "Arm the device with the open experiment's configuration.", Workflow.Setup),
		s.operation("start_polling", "Command the device to compute the truth table and start polling it.", Workflow.Start),
		s.operation("restart", "Stop polling and discard the collected outputs.", Workflow.Restart),
		s.operation("send_results", "Submit the collected truth table to the backend.", Workflow.Send),
		{
			Tool: mcp.NewTool("get_snapshot",
				mcp.WithDescription("Return the status, input table and collected outputs of the open experiment."),
				mcp.WithOutputSchema[domain.Snapshot](),
			),
			Handler: mcp.NewStructuredToolHandler(s.handleSnapshot),
		},
	}
	if s.relays != nil {
		tools = append(tools, server.ServerTool{
			Tool: mcp.NewTool("toggle_relay",
				mcp.WithDescription("Flip one of the eight device relays."),
				mcp.WithNumber("relay", mcp.Required(), mcp.Min(1), mcp.Max(domain.RelayCount), mcp.Description("Relay number, 1 to 8")),
			),
			Handler: s.handleToggleRelay,
		})
	}
	return tools
}

type openArgs struct {
	Experiment int `json:"experiment"`
}

type noArgs struct{}

func (s *Server) handleListModules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(s.catalog)
}

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest, args openArgs) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wf, err := s.open(ctx, args.Experiment)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("open experiment %d: %w", args.Experiment, err)
	}
	if s.current != nil {
		if err := s.current.Close(); err != nil {
			s.logger.Warn("MCP: failed to close previous workflow", "err", err)
		}
	}
	s.current = wf
	s.logger.Info("MCP: experiment opened", "experiment", args.Experiment)
	return wf.Snapshot(), nil
}

// operation adapts a workflow method to a tool that returns the resulting snapshot.
func (s *Server) operation(name, description string, op func(Workflow, context.Context) error) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(name,
			mcp.WithDescription(description),
			mcp.WithOutputSchema[domain.Snapshot](),
		),
		Handler: mcp.NewStructuredToolHandler(func(ctx context.Context, request mcp.CallToolRequest, _ noArgs) (domain.Snapshot, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.current == nil {
				return domain.Snapshot{}, ErrNoWorkflow
			}
			if err := op(s.current, ctx); err != nil {
				s.logger.Warn("MCP: operation failed", "tool", name, "err", err)
				return domain.Snapshot{}, err
			}
			return s.current.Snapshot(), nil
		}),
	}
}

func (s *Server) handleSnapshot(ctx context.Context, request mcp.CallToolRequest, _ noArgs) (domain.Snapshot, error) {
	return s.snapshot()
}

func (s *Server) snapshot() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.Snapshot{}, ErrNoWorkflow
	}
	return s.current.Snapshot(), nil
}

func (s *Server) handleToggleRelay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	relay, err := request.RequireInt("relay")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	on, err := s.relays.Toggle(ctx, relay)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("toggle relay %d: %v", relay, err)), nil
	}
	state := "off"
	if on {
		state = "on"
	}
	return mcp.NewToolResultText(fmt.Sprintf("relay %d is %s", relay, state)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SnapshotURI, "Open Workflow Snapshot",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		snap, err := s.snapshot()
		if err != nil {
			return nil, err
		}
		jsonBytes, err := json.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SnapshotURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
