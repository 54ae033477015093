package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/cwbudde/algo-voice/httpapi"
	"github.com/cwbudde/algo-voice/store"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	storeDir := flag.String("store-dir", "profiles", "Directory for persisted voice profiles")
	tmpDir := flag.String("tmp-dir", "", "Scratch directory for uploaded audio; defaults to the OS temp dir")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	st, err := store.Open(*storeDir)
	if err != nil {
		die("failed to open profile store at %q: %v", *storeDir, err)
	}

	server := httpapi.NewServer(st, logger, *tmpDir)
	logger.Info("listening", "addr", *addr, "store_dir", *storeDir)
	if err := http.ListenAndServe(*addr, server.Routes()); err != nil {
		die("server exited: %v", err)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
