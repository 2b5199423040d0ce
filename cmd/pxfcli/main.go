/*
NAME
  main.go

DESCRIPTION
  pxfcli is a bare bones program for exercising the pxf facade end to
  end from the command line: encode, decode, and an optional watch
  mode that decodes canvas files dropped into a directory.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pxfcli is a bare bones program for exercising the pxf facade
// end to end from the command line.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ausocean/pxf"
	"github.com/ausocean/pxf/codec/binary"
	"github.com/ausocean/pxf/config"
)

func main() {
	var (
		mode    = flag.String("mode", "", "encode or decode")
		maxDim  = flag.Int("max_dim", 0, "maximum canvas dimension")
		watch   = flag.String("watch", "", "directory to watch for dropped JPEG canvases to decode")
		logFile = flag.String("log_file", "", "write row/MCU diagnostics to this rotating file (without this or -log_zap nothing is logged)")
		logZap  = flag.Bool("log_zap", false, "write row/MCU diagnostics through a zap production logger")
	)
	flag.Parse()

	cfg := config.Config{MaxDim: *maxDim}
	logger, err := newLogger(*logFile, *logZap)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pxfcli:", err)
		os.Exit(1)
	}
	cfg.Logger = logger

	if *watch != "" {
		if err := watchDir(*watch, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "pxfcli:", err)
			os.Exit(1)
		}
		return
	}

	switch *mode {
	case "encode":
		if err := runEncode(cfg); err != nil {
			fmt.Fprintln(os.Stderr, "pxfcli encode:", err)
			os.Exit(1)
		}
	case "decode":
		if err := runDecode(cfg); err != nil {
			fmt.Fprintln(os.Stderr, "pxfcli decode:", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "pxfcli: -mode must be encode or decode (or use -watch)")
		os.Exit(2)
	}
}

func runEncode(cfg config.Config) error {
	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	enc := pxf.NewEncoder(cfg)
	canvases, err := enc.Encode(payload, nil, nil)
	if err != nil {
		return err
	}
	for i, c := range canvases {
		fmt.Fprintf(os.Stderr, "canvas %d: %dx%d\n", i, c.Width, c.Height)
	}
	_, err = os.Stdout.Write(canvases[0].Pix)
	return err
}

func runDecode(cfg config.Config) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	dec := pxf.NewDecoder(cfg)
	if err := dec.Load([][]byte{data}); err != nil {
		return err
	}
	var debug binary.DebugSink
	result, err := dec.Decode(&debug)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "checksum valid: %v, health: %.2f\n", result.ValidChecksum, debug.OverallHealth)
	_, err = os.Stdout.Write(result.Data)
	return err
}

// newLogger builds the Logger cfg carries through to the facade's row
// and MCU diagnostics, from the -log_file/-log_zap flags. With neither
// set it returns nil, and diagnostics are simply not logged.
func newLogger(logFile string, useZap bool) (config.Logger, error) {
	switch {
	case useZap:
		z, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("creating zap logger: %w", err)
		}
		return config.NewZapLogger(z), nil
	case logFile != "":
		return config.NewFileLogger(logFile), nil
	default:
		return nil, nil
	}
}

// watchDir runs a live-reload style watch loop: a decode is triggered
// whenever a JPEG file is created in dir.
func watchDir(dir string, cfg config.Config) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	fmt.Fprintf(os.Stderr, "watching %s for dropped canvases...\n", dir)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == 0 {
				continue
			}
			if err := decodeDroppedFile(ev.Name, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "pxfcli watch: %s: %v\n", ev.Name, err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "pxfcli watch:", err)
		}
	}
}

func decodeDroppedFile(path string, cfg config.Config) error {
	if filepath.Ext(path) != ".jpg" && filepath.Ext(path) != ".jpeg" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := pxf.NewDecoder(cfg)
	if err := dec.Load([][]byte{data}); err != nil {
		return err
	}
	result, err := dec.Decode(nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s: decoded %d bytes, checksum valid: %v\n", path, len(result.Data), result.ValidChecksum)
	return nil
}
