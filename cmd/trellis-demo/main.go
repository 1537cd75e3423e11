package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/lixenwraith/trellis/config"
	"github.com/lixenwraith/trellis/engine"
	"github.com/lixenwraith/trellis/terminal"
	"github.com/lixenwraith/trellis/widget"
)

var (
	configFlag = flag.String("config", "trellis.toml", "Path to TOML config; missing file uses defaults")
	colorFlag  = flag.String("color", "", "Color mode: auto, truecolor, 256 (overrides config)")
	fpsFlag    = flag.Int("fps", 0, "Frame cap (overrides config)")
	debugFlag  = flag.Bool("debug", false, "Write debug log to the configured log dir")
	cssFlag    = flag.String("css", "", "Extra stylesheet applied after the config sheets")
)

type sheet struct {
	name string
	text string
}

func main() {
	// Panic recovery before the engine owns the terminal
	defer func() {
		if r := recover(); r != nil {
			terminal.EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\n\x1b[31mTRELLIS CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *colorFlag != "" {
		cfg.Display.ColorMode = *colorFlag
	}
	if *fpsFlag > 0 {
		cfg.Display.MaxFPS = *fpsFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	base, err := cfg.Display.Base()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logFile := setupLogging(cfg.Logging.Debug || *debugFlag, cfg.Logging.Dir, int64(cfg.Logging.MaxSizeMB)*1024*1024)
	if logFile != nil {
		defer logFile.Close()
	}

	// Sheets are read before raw mode so errors print normally
	sheets, err := readSheets(cfg.Style.Sheets, *cssFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stylesheet: %v\n", err)
		os.Exit(1)
	}

	colorMode := cfg.Display.ColorModeValue()
	term := terminal.New(colorMode)
	if err := term.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}
	defer term.Fini()

	var d *demo
	app := engine.New(engine.NewTerminalScreen(term), widget.Screen{}, engine.Options{
		MaxFPS:    cfg.Display.MaxFPS,
		QueueSize: cfg.Engine.QueueSize,
		Base:      base,
		Logger:    log.Default(),
		OnInput:   func(s *engine.Session, data []byte) { d.handleInput(s, data) },
		OnCrash:   engine.HandleCrash,
	})

	info := fmt.Sprintf("color %s\nfps %d\nqueue %d", colorModeName(colorMode), cfg.Display.MaxFPS, cfg.Engine.QueueSize)
	d, err = buildDemo(app, info)
	if err != nil {
		term.Fini()
		fmt.Fprintf(os.Stderr, "demo: %v\n", err)
		os.Exit(1)
	}

	// Bad rules are logged and skipped; the remaining rules still apply
	for _, sh := range sheets {
		if err := d.addSheet(sh.name, sh.text); err != nil {
			log.Printf("stylesheet %s: %v", sh.name, err)
		}
	}
	for name, value := range cfg.Style.Variables {
		if err := app.Session().SetVariable(name, value); err != nil {
			log.Printf("variable $%s: %v", name, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d.start()
	err = app.Run(ctx)

	st := app.Stats()
	log.Printf("=== trellis-demo stopped: passes=%d superseded=%d frames=%d written=%d dropped=%d/%d paint_errors=%d ===",
		st.Passes, st.Superseded, st.Frames, st.Written, st.FramesDropped, st.MessagesDropped, st.PaintErrors)

	if err != nil && !errors.Is(err, context.Canceled) {
		term.Fini()
		fmt.Fprintf(os.Stderr, "trellis: %v\n", err)
		os.Exit(1)
	}
}

// readSheets loads the configured stylesheet files followed by extra, if set
func readSheets(paths []string, extra string) ([]sheet, error) {
	if extra != "" {
		paths = append(paths[:len(paths):len(paths)], extra)
	}
	sheets := make([]sheet, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet{name: filepath.Base(p), text: string(data)})
	}
	return sheets, nil
}

func colorModeName(m terminal.ColorMode) string {
	if m == terminal.ColorModeTrueColor {
		return "truecolor"
	}
	return "256"
}
