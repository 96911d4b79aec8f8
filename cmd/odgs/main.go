// odgs is the Open Data Governance Schema command: it lists, prints,
// validates and exports the embedded governance reference bundle.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/odgs/odgs/cmd/odgs/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
