package lsp

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"hlsc/grammar"
	"hlsc/internal/config"
)

var log = commonlog.GetLogger("hlsc.lsp")

// Define the set of supported semantic token types (as required by the LSP spec)
var SemanticTokenTypes = []string{
	"namespace",
	"function",
	"variable",
	"parameter",
	"property",
	"keyword",
	"number",
	"operator",
}

// Define the set of supported semantic token modifiers
var SemanticTokenModifiers = []string{
	"declaration",
	"definition",
}

// HIRHandler implements the LSP server handlers for textual IR documents
type HIRHandler struct {
	mu      sync.RWMutex
	cfg     *config.Config
	content map[string]string
	files   map[string]*grammar.File
}

// NewHIRHandler creates a handler that converts documents with cfg
func NewHIRHandler(cfg *config.Config) *HIRHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &HIRHandler{
		cfg:     cfg,
		content: make(map[string]string),
		files:   make(map[string]*grammar.File),
	}
}

// Initialize responds to the LSP client's initialize request and advertises the server's capabilities
func (h *HIRHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("LSP Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: ptrBool(false),
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

// Initialized is called after the client receives the server's capabilities
func (h *HIRHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("hlsc LSP initialized")
	return nil
}

// Shutdown handles the LSP shutdown request
func (h *HIRHandler) Shutdown(ctx *glsp.Context) error {
	log.Info("hlsc LSP shutdown")
	return nil
}

// SetTrace records the trace level requested by the client
func (h *HIRHandler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// TextDocumentDidOpen handles file open notifications from the editor
func (h *HIRHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Infof("opened file: %s", params.TextDocument.URI)

	diagnostics, err := h.update(params.TextDocument.URI, params.TextDocument.Text)
	if err != nil {
		return fmt.Errorf("failed to analyze document: %w", err)
	}
	sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

// TextDocumentDidChange handles file change notifications. The server
// advertises full sync, so the last change carries the whole document.
func (h *HIRHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Debugf("changed file: %s", params.TextDocument.URI)

	text, ok := "", false
	for _, change := range params.ContentChanges {
		if whole, isWhole := change.(protocol.TextDocumentContentChangeEventWhole); isWhole {
			text, ok = whole.Text, true
		}
	}
	if !ok {
		return fmt.Errorf("no full-text change for %s", params.TextDocument.URI)
	}

	diagnostics, err := h.update(params.TextDocument.URI, text)
	if err != nil {
		return fmt.Errorf("failed to analyze document: %w", err)
	}
	sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

// TextDocumentDidClose handles file close notifications from the editor
func (h *HIRHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Infof("closed file: %s", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.files, path)
	return nil
}

// TextDocumentCompletion offers the block names and declared symbols of the document
func (h *HIRHandler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	file := h.files[path]
	h.mu.RUnlock()

	items := []protocol.CompletionItem{}
	seen := make(map[string]bool)
	addItem := func(label string, kind protocol.CompletionItemKind, detail string) {
		if seen[label] {
			return
		}
		seen[label] = true
		items = append(items, protocol.CompletionItem{Label: label, Kind: &kind, Detail: ptrString(detail)})
	}

	if file != nil {
		for _, scope := range file.Scopes {
			for _, decl := range scope.Decls {
				for _, name := range decl.Names {
					addItem(name.Value, protocol.CompletionItemKindVariable, decl.Kind)
				}
			}
			for _, block := range scope.Blocks {
				addItem(block.Name, protocol.CompletionItemKindReference, "block")
			}
		}
	}

	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        items,
	}, nil
}

// TextDocumentSemanticTokensFull handles semantic token requests for the entire document
func (h *HIRHandler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	log.Debugf("semantic tokens requested for %s", params.TextDocument.URI)

	file, err := h.getOrLoad(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	return &protocol.SemanticTokens{
		Data: encodeSemanticTokens(collectSemanticTokens(file)),
	}, nil
}

// getOrLoad returns the last good parse of a document, reading it from disk
// when the editor never opened it
func (h *HIRHandler) getOrLoad(ctx *glsp.Context, rawURI protocol.DocumentUri) (*grammar.File, error) {
	path, err := uriToPath(rawURI)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	file, ok := h.files[path]
	h.mu.RUnlock()
	if ok {
		return file, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	diagnostics, err := h.update(rawURI, string(content))
	if err != nil {
		return nil, err
	}
	sendDiagnosticNotification(ctx, rawURI, diagnostics)

	h.mu.RLock()
	file = h.files[path]
	h.mu.RUnlock()
	return file, nil
}

// update stores a new document version and analyzes it. The previous parse
// is kept when the new text does not parse, so tokens survive while typing.
func (h *HIRHandler) update(rawURI protocol.DocumentUri, content string) ([]protocol.Diagnostic, error) {
	path, err := uriToPath(rawURI)
	if err != nil {
		return nil, err
	}

	file, parseErr := grammar.ParseString(path, content)

	h.mu.Lock()
	h.content[path] = content
	if parseErr == nil {
		h.files[path] = file
	}
	h.mu.Unlock()

	return Analyze(path, content, h.cfg), nil
}

// Convert URI to platform-local file path
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path

	// On Windows, remove leading slash (e.g., /C:/...) -> C:/...
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

// sendDiagnosticNotification publishes diagnostics, an empty list clearing
// the ones sent before
func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	if log.AllowLevel(commonlog.Debug) {
		if data, err := json.MarshalIndent(diagnostics, "", "  "); err == nil {
			log.Debugf("sending diagnostics: %s", data)
		}
	}

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
