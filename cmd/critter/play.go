package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/lixenwraith/critter/config"
	"github.com/lixenwraith/critter/core"
	"github.com/lixenwraith/critter/logging"
	"github.com/lixenwraith/critter/render"
)

func runPlay(ctx context.Context, cfg *config.Config) error {
	logger, logFile, err := logging.Setup(cfg.Debug, cfg.LogDir)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if !interactive() {
		a.logger.Info("no terminal, running headless")
		return a.runHeadless(ctx, os.Stdin, os.Stdout)
	}
	return a.runTerminal(ctx)
}

func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runTerminal owns the screen until quit
// Input is polled on its own goroutine; the renderer redraws on its ticker
func (a *app) runTerminal(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	core.SetCrashScreen(screen)
	defer func() {
		core.SetCrashScreen(nil)
		screen.Fini()
	}()
	screen.EnableMouse()
	screen.HideCursor()

	renderer := render.NewRenderer(screen, a.clock)
	if err := a.wire(renderer); err != nil {
		return err
	}
	if err := a.start(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	core.Go(func() { renderer.Run(ctx) })

	events := make(chan tcell.Event, 100)
	core.Go(func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	})

	st := a.stage.Stage()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			cmd := eventCommand(ev)
			if cmd == cmdRedraw {
				screen.Sync()
				renderer.Invalidate()
				continue
			}
			if !apply(cmd, st) {
				return nil
			}
		}
	}
}

// runHeadless reads commands from in, one per line, until EOF or quit
func (a *app) runHeadless(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := a.wire(render.NewHeadless(out)); err != nil {
		return err
	}
	if err := a.start(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	core.Go(func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	})

	st := a.stage.Stage()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || !apply(lineCommand(line), st) {
				return nil
			}
		}
	}
}
