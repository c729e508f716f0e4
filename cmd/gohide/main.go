// GoHide - hide text in images, WAV audio and AVI video.
//
// Usage:
//
//	gohide hide --in <carrier> --out <file> --message <text>
//	gohide reveal --in <file>
//	gohide capacity <file>...
//	gohide cover --out <file> [options]
//	gohide serve [--addr :8080]
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, newRootCmd())
	stop()
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
