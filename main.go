package main

//go:generate swag init -g internal/server/docs.go -o internal/server --outputTypes go

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"trackerdeploy/internal/app"
	"trackerdeploy/internal/cli/commands"
	"trackerdeploy/internal/errors"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create and run app
	application := app.New()
	err := application.RunWithContext(ctx, os.Args[1:])
	cancel()
	if err != nil {
		commands.WriteError(os.Stderr, err)
		os.Exit(errors.ExitCodeOf(err))
	}
}
