// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
	"hlsc/internal/config"
	"hlsc/internal/lsp"
)

const lsName = "hlsc" // Name identifier for the language server

var (
	version = "0.1.0"
	handler protocol.Handler // Protocol handler instance (wired up below)
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:           "hlsc-lsp",
		Short:         "Language server for textual IR files",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")

	if err := cmd.Execute(); err != nil {
		commonlog.GetLogger("hlsc.lsp").Errorf("%s", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			commonlog.Configure(1, nil)
			return err
		}
		cfg = loaded
	}

	// stdout carries the protocol, so logs go to the configured file or stderr
	if cfg.Log.File != "" {
		commonlog.Configure(cfg.Log.Verbosity, &cfg.Log.File)
	} else {
		commonlog.Configure(cfg.Log.Verbosity, nil)
	}
	log := commonlog.GetLogger("hlsc.lsp")

	hirHandler := lsp.NewHIRHandler(cfg)

	handler = protocol.Handler{
		Initialize:                     hirHandler.Initialize,
		Initialized:                    hirHandler.Initialized,
		Shutdown:                       hirHandler.Shutdown,
		SetTrace:                       hirHandler.SetTrace,
		TextDocumentDidOpen:            hirHandler.TextDocumentDidOpen,
		TextDocumentDidClose:           hirHandler.TextDocumentDidClose,
		TextDocumentDidChange:          hirHandler.TextDocumentDidChange,
		TextDocumentCompletion:         hirHandler.TextDocumentCompletion,
		TextDocumentSemanticTokensFull: hirHandler.TextDocumentSemanticTokensFull,
	}

	// - name: the language server name (shown to clients)
	// - debug: whether to enable internal GLSP debug logs
	s := server.NewServer(&handler, lsName, false)

	log.Infof("starting hlsc LSP server %s", version)
	return s.RunStdio()
}
