package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/rtmp-wire/chunk"
)

func main() {
	var (
		inFile      = flag.String("in", "", "Path to capture file")
		mode        = flag.String("mode", "chunks", "Input format: chunks, amf0, amf3 or envelope")
		chunkSize   = flag.Uint("chunk-size", chunk.DefaultChunkSize, "Negotiated inbound chunk size")
		verbose     = flag.Bool("v", false, "Verbose decode logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: wiredump -in <capture> [-mode chunks|amf0|amf3|envelope] [-chunk-size n]")
		fmt.Fprintln(os.Stderr, "       wiredump -in <capture> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		chunk.SetLogger(logger)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*inFile, *mode, uint32(*chunkSize)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*inFile, *mode, uint32(*chunkSize)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(inFile, mode string, chunkSize uint32) error {
	data, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	entries, err := loadEntries(data, mode, chunkSize)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	fmt.Printf("Capture: %s (%d bytes, mode %s)\n", inFile, len(data), mode)
	fmt.Printf("Decoded entries: %d\n", len(entries))
	for i, e := range entries {
		fmt.Printf("\n--- %d: %s ---\n%s\n", i, e.title, e.detail)
	}
	return nil
}
