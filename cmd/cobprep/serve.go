package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/scanner"
	"github.com/praetorian-inc/cobprep/pkg/serve"
	"github.com/spf13/cobra"
)

var (
	serveFlags  pipelineFlags
	serveTokens bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming preprocessing server",
	Long: `Run cobprep as a long-lived streaming server that accepts preprocess
requests via stdin and writes results to stdout using NDJSON format.

Configuration and directive rules are loaded once at startup. Requests are
processed until stdin closes, a close request arrives or SIGTERM is
received.`,
	RunE: runServe,
}

func init() {
	serveFlags.register(serveCmd)
	serveCmd.Flags().BoolVar(&serveTokens, "tokens", false, "Include the token stream in results")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Diagnostics travel in the responses; stderr only gets errors.
	pcfg, _, err := serveFlags.pipelineConfig(diag.NewWriterLogger(cmd.ErrOrStderr(), diag.Error, false))
	if err != nil {
		return err
	}

	core, err := scanner.NewCore(pcfg, scanner.Options{Tokens: serveTokens}, nil)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	srv := serve.NewServer(core, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(ctx)
}
