package main

import (
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/CodingBeagle/two-dee-shooter/graphics"
)

func main() {
	// SDL and the window event loop must stay on the main OS thread.
	runtime.LockOSThread()

	config, err := graphics.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("%+v\n", err)
	}

	level := slog.LevelInfo
	if config.Verbose {
		level = slog.LevelDebug
	}
	graphics.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	app := graphics.NewApp(config)
	err = app.Run()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
