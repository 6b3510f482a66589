package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Elmeric/cycliti/internal/di"
)

func main() {
	a, err := di.InitializeApp()
	if err != nil {
		log.Fatal(err)
	}
	errCh := a.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case err := <-errCh:
		if err != nil {
			a.Logger.Error("http server stopped", "error", err)
		}
	}

	a.Shutdown(context.Background())
}
