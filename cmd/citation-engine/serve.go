// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/server"
	"github.com/pdiddy/citation-engine/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolution and citation APIs over HTTP",
	Long: `Serve starts an HTTP server exposing POST /api/resolve,
POST /api/citations, POST /api/export (RIS), and GET /healthz. All requests
share the process-wide provider rate limiters.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8642)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, err := buildEngines(cmd)
	if err != nil {
		return err
	}
	defer eng.close()

	addr := eng.cfg.Server.Addr
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}
	if addr == "" {
		addr = types.DefaultServerAddr
	}

	srv := server.New(eng.resolver, eng.aggregator, eng.cfg.Server, os.Stderr)
	fmt.Fprintf(os.Stderr, "citation-engine listening on %s\n", addr)
	return (&http.Server{Addr: addr, Handler: srv.Handler()}).ListenAndServe()
}
