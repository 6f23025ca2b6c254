// Command validate checks transaction CSV files against the expected layout.
//
// Usage:
//
//	validate FILE...
//
// One result line is printed per file. The exit status is 0 when every file
// passes, 1 when any file fails validation, and 2 when a file could not be
// checked at all (permission denied, read error).
//
// VALIDATION_MODE, VALIDATION_MAX_FILE_SIZE, LOG_LEVEL and LOG_FORMAT are
// read from the environment or a .env file. Logs go to stderr.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvgate/internal/config"
	"github.com/JonMunkholm/csvgate/internal/core"
	"github.com/JonMunkholm/csvgate/internal/logging"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitFatal   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: validate FILE...")
		return exitFatal
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFatal
	}
	logging.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	mode, err := core.ParseMode(cfg.Validation.Mode)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFatal
	}
	p := core.NewProcessor(
		core.WithMode(mode),
		core.WithMaxBytes(cfg.Validation.MaxFileSize),
	)

	code := exitOK
	for _, path := range args {
		out, err := p.ProcessData(ctx, path)
		if err != nil {
			slog.Error("validation aborted", "path", path, "error", err)
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			code = exitFatal
			continue
		}

		if len(args) > 1 {
			fmt.Fprintf(stdout, "%s: %s\n", path, out.Message())
		} else {
			fmt.Fprintln(stdout, out.Message())
		}
		if !out.OK && code == exitOK {
			code = exitInvalid
		}
	}
	return code
}
