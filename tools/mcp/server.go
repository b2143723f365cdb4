// Package mcp exposes the read-only half of the agent over the Model Context
// Protocol: file resolution, reference injection, directive extraction and
// risk classification. It never writes files or runs commands.
package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/m4xw311/gemini-agent/config"
	"github.com/m4xw311/gemini-agent/directive"
	"github.com/m4xw311/gemini-agent/errors"
	"github.com/m4xw311/gemini-agent/workspace"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type ResolveArgs struct {
	Name string `json:"name" jsonschema:"bare file name to look up, e.g. main.go"`
}

type InjectArgs struct {
	Text string `json:"text" jsonschema:"prompt text containing @file references"`
}

type ExtractArgs struct {
	Text string `json:"text" jsonschema:"model reply containing directive blocks"`
}

type ClassifyArgs struct {
	Command string `json:"command" jsonschema:"shell command to classify"`
}

// CommandProposal is the JSON form of a command directive.
type CommandProposal struct {
	Command     string `json:"command"`
	Explanation string `json:"explanation,omitempty"`
	Risk        string `json:"risk"`
}

// Extraction is the JSON form of everything found in one reply.
type Extraction struct {
	FileWrites []directive.FileWrite `json:"file_writes"`
	Command    *CommandProposal      `json:"command,omitempty"`
}

// Server serves the engine tools relative to a root directory.
type Server struct {
	resolver   *workspace.Resolver
	injector   *workspace.Injector
	classifier *directive.Classifier
	root       func() (string, error)
	version    string
	logger     *zap.Logger
}

// NewServer builds a server rooted at the process working directory when
// root is nil.
func NewServer(cfg *config.Config, version string, root func() (string, error), logger *zap.Logger) *Server {
	if root == nil {
		root = os.Getwd
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := workspace.NewResolver(cfg.Resolver.IgnoreDirs)
	return &Server{
		resolver:   resolver,
		injector:   workspace.NewInjector(resolver, cfg.Resolver.MaxFileChars, workspace.WithRoot(root), workspace.WithLogger(logger)),
		classifier: directive.NewClassifier(cfg.Risk.Keywords, cfg.Risk.RedirectChars),
		root:       root,
		version:    version,
		logger:     logger,
	}
}

// MCPServer registers the tools on a fresh SDK server.
func (s *Server) MCPServer() *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "gemini-agent", Version: s.version}, nil)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "resolve_file",
		Description: "Finds a file by bare name under the working directory, skipping ignored directories. Returns the relative path.",
	}, s.resolveFile)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "inject_references",
		Description: "Replaces every @name reference in the text with the referenced file's contents.",
	}, s.injectReferences)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "extract_directives",
		Description: "Parses ###ARQUIVO and ###CMD blocks from a model reply and returns them as JSON. Nothing is executed.",
	}, s.extractDirectives)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "classify_command",
		Description: "Returns \"critical\" when a shell command looks destructive, \"normal\" otherwise.",
	}, s.classifyCommand)
	return server
}

// Run serves over stdin/stdout until ctx is cancelled or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", zap.String("version", s.version))
	return s.MCPServer().Run(ctx, mcpsdk.NewStdioTransport())
}

func (s *Server) resolveFile(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[ResolveArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	root, err := s.root()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get working directory")
	}
	name := params.Arguments.Name
	path, err := s.resolver.Resolve(root, name)
	if err != nil {
		if errors.Is(err, workspace.ErrNotFound) {
			return errorResult(workspace.Marker(name, err)), nil
		}
		return nil, err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return textResult(filepath.ToSlash(rel)), nil
}

func (s *Server) injectReferences(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[InjectArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	return textResult(s.injector.Inject(params.Arguments.Text)), nil
}

func (s *Server) extractDirectives(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[ExtractArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	out := Extraction{FileWrites: []directive.FileWrite{}}
	for _, d := range directive.Extract(params.Arguments.Text, s.classifier) {
		switch v := d.(type) {
		case directive.FileWrite:
			out.FileWrites = append(out.FileWrites, v)
		case directive.Command:
			out.Command = &CommandProposal{Command: v.Command, Explanation: v.Explanation, Risk: v.Risk.String()}
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode directives")
	}
	return textResult(string(data)), nil
}

func (s *Server) classifyCommand(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[ClassifyArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	return textResult(s.classifier.Classify(params.Arguments.Command).String()), nil
}

func textResult(text string) *mcpsdk.CallToolResultFor[any] {
	return &mcpsdk.CallToolResultFor[any]{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}}}
}

func errorResult(text string) *mcpsdk.CallToolResultFor[any] {
	r := textResult(text)
	r.IsError = true
	return r
}
