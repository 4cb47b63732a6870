// Command aspen is a thin illustrative binary wiring the policy compiler,
// combining algorithms, reference broker, and PDP loop together end to
// end (§6). It is not a deployment artifact: Aspen has no policy-text
// parser (policy.Document is assembled directly — see policy/document.go),
// so this CLI demonstrates the wiring against a document built in Go
// rather than loaded from real policy source. Grounded on the teacher's
// own main.go (signal-aware context, structured logging setup, hand off
// to a CLI built with github.com/binaek/cling) and cmd/serve.go (a
// long-running command that blocks on ctx.Done).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/binaek/cling"
	"go.uber.org/zap"
)

var version = "0.1.0"

func main() {
	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, os.Kill)
	defer stop()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cli := cling.NewCLI("aspen", version).
		WithDescription("Aspen is a reference attribute-based policy decision point")
	cli.WithCommand(newDecideCmd(logger))

	if err := cli.Run(ctx, os.Args); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
}
