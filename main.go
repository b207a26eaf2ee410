package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/olivier-w/mp3mirror/internal/library"
	"github.com/olivier-w/mp3mirror/internal/server"
	"github.com/olivier-w/mp3mirror/internal/transcode"
)

type options struct {
	listen   string
	root     string
	bitrate  int
	quality  int
	logLevel string
}

func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("mp3mirror", flag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.listen, "listen", ":8080", "address to listen on")
	fs.StringVar(&opts.root, "root", ".", "library root directory")
	fs.IntVar(&opts.bitrate, "bitrate", 128, "target bitrate in kbps")
	fs.IntVar(&opts.quality, "quality", 2, "encoder quality hint")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.bitrate <= 0 {
		return opts, fmt.Errorf("bitrate must be positive, got %d", opts.bitrate)
	}
	return opts, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "mp3mirror",
		Level: hclog.LevelFromString(opts.logLevel),
	})

	fi, err := os.Stat(opts.root)
	if err != nil || !fi.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: library root %q is not a directory\n", opts.root)
		os.Exit(1)
	}

	cfg := transcode.Config{BitrateKbps: opts.bitrate, Quality: opts.quality}
	lib := library.New(opts.root, cfg, log)

	srv := &http.Server{
		Addr:              opts.listen,
		Handler:           server.New(lib, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	log.Info("serving library",
		"root", opts.root,
		"listen", opts.listen,
		"bitrate_kbps", opts.bitrate)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}
