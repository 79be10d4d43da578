package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/soocke/gift-bot-go/app"
	"github.com/soocke/gift-bot-go/config"
	"github.com/soocke/gift-bot-go/domain/action"
	"github.com/soocke/gift-bot-go/status"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	configPath := flag.String("config", config.DefaultPath, "Path to the INI configuration file")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	listWindows := flag.Bool("list-windows", false, "Print visible window titles and exit")
	flag.Parse()

	if *listWindows {
		return printWindows(os.Stdout)
	}

	console := status.NewConsole(os.Stdout)
	stdin := bufio.NewReader(os.Stdin)
	logger := NewLogger(slog.LevelInfo, console.LogWriter(os.Stdout))
	var logFile *os.File

	// Outermost boundary: whatever happens, the operator sees it before the
	// console window goes away.
	defer func() {
		if shutdown(recover(), logger, logFile) {
			code = 1
		}
		console.Interrupt()
		app.WaitForKey(os.Stdin, stdin, os.Stdout)
	}()

	cfg, created, err := config.Load(*configPath)
	if err != nil {
		logger.Error("configuration error; check that the file is complete and well-formed", "error", err)
		return 1
	}

	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn("falling back to info level", "error", err)
	}
	if *debugMode {
		level = slog.LevelDebug
	}
	sinks := []io.Writer{console.LogWriter(os.Stdout)}
	logFile, err = openLogFile(cfg.LogFile)
	if err != nil {
		logger.Warn("log file unavailable, logging to console only", "path", cfg.LogFile, "error", err)
	} else if logFile != nil {
		sinks = append(sinks, logFile)
	}
	logger = NewLogger(level, sinks...)

	logger.Info("gift bot starting")
	if created {
		logger.Info("no configuration found, wrote defaults", "path", *configPath)
	} else {
		logger.Info("configuration loaded", "path", *configPath)
	}

	err = app.Run(context.Background(), app.Options{
		Config:   cfg,
		Logger:   logger,
		Reporter: console,
		In:       stdin,
		Out:      os.Stdout,
		Platform: app.DefaultPlatform(),
		Notify: func(parent context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		},
	})
	if err != nil {
		logger.Error("terminated", "error", err)
		return 1
	}
	return 0
}

// shutdown logs a recovered panic with its stack and only then closes the log
// file, so the failure record reaches it. It reports whether r was a panic.
func shutdown(r any, logger *slog.Logger, logFile *os.File) bool {
	if r != nil {
		logger.Error("terminated by unexpected failure", "error", r, "stack", string(debug.Stack()))
	}
	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
		}
	}
	return r != nil
}

func printWindows(w io.Writer) int {
	titles, err := action.ListWindows()
	if err != nil {
		fmt.Fprintf(w, "list windows: %v\n", err)
		return 1
	}
	for _, t := range titles {
		fmt.Fprintln(w, t)
	}
	return 0
}
