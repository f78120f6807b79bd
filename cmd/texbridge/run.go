package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gogpu/dmabridge"
	"github.com/gogpu/dmabridge/backend"
	"github.com/gogpu/dmabridge/internal/quad"
	"github.com/gogpu/dmabridge/internal/x11"
)

// app holds the collaborators of a run so tests can replace them.
type app struct {
	stderr          io.Writer
	getenv          func(string) string
	newWindowSystem func(display string) dmabridge.WindowSystem
	newRenderer     func() dmabridge.Renderer
}

func newApp(stderr io.Writer) *app {
	return &app{
		stderr: stderr,
		getenv: os.Getenv,
		newWindowSystem: func(display string) dmabridge.WindowSystem {
			return x11.New(display)
		},
		newRenderer: func() dmabridge.Renderer { return quad.New() },
	}
}

// run executes the command and returns the exit status. Failures print a
// single diagnostic line.
func (a *app) run(ctx context.Context, args []string) int {
	opt, err := parseFlags(args, a.stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return a.fail(err)
	}
	path, explicit := opt.configPath, opt.configPath != ""
	if !explicit {
		path = filepath.Join(configDir(a.getenv), configFile)
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return a.fail(err)
	}
	opt.apply(&cfg)
	if err := cfg.validate(); err != nil {
		return a.fail(err)
	}
	level, _ := cfg.level()
	logger := slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	dmabridge.SetLogger(logger)
	defer dmabridge.SetLogger(nil)

	if err := a.session(ctx, cfg); err != nil {
		return a.fail(err)
	}
	return 0
}

func (a *app) fail(err error) int {
	fmt.Fprintf(a.stderr, "texbridge: %v\n", err)
	return 1
}

func openBackend(name string) (backend.Backend, error) {
	if name == "" {
		if be := backend.Default(); be != nil {
			return be, nil
		}
		return nil, backend.ErrBackendNotAvailable
	}
	if !backend.IsRegistered(name) {
		return nil, fmt.Errorf("unknown backend %q (available: %v)", name, backend.Available())
	}
	be, err := backend.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("backend %q: %w", name, err)
	}
	return be, nil
}

func (a *app) session(ctx context.Context, cfg config) (err error) {
	be, err := openBackend(cfg.Backend)
	if err != nil {
		return err
	}
	secondaryEGL, secondaryGLES := cfg.secondaryLibraries()
	sc := dmabridge.SessionConfig{
		Backend:   be,
		Native:    dmabridge.DefaultRequirements(cfg.NativeEGL, cfg.NativeGLES),
		Secondary: dmabridge.DefaultRequirements(secondaryEGL, secondaryGLES),
		Width:     int32(cfg.Width),  //nolint:gosec // G115: validated
		Height:    int32(cfg.Height), //nolint:gosec // G115: validated
		Title:     cfg.Title,
		Headless:  cfg.Headless,
	}
	if !cfg.Headless {
		sc.WindowSystem = a.newWindowSystem(cfg.Display)
		sc.Renderer = a.newRenderer()
	}
	s, err := dmabridge.NewSession(sc)
	if err != nil {
		return err
	}
	defer func() {
		if serr := s.Shutdown(); serr != nil && err == nil {
			err = serr
		}
	}()
	if err := s.Start(); err != nil {
		return err
	}

	if cfg.Headless {
		if err := s.Verify(); err != nil {
			return err
		}
		dmabridge.Logger().Info("texbridge: shared texture verified",
			"backend", be.Name(), "descriptor", s.Exported().Descriptor().String())
	} else if err := s.Run(ctx); err != nil {
		return err
	}

	if cfg.Snapshot != "" {
		pixels, err := s.Readback()
		if err != nil {
			return err
		}
		if err := writeSnapshot(cfg.Snapshot, pixels, cfg.Width, cfg.Height); err != nil {
			return err
		}
	}
	return nil
}
