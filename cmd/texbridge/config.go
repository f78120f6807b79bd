package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/dmabridge"
)

// config is the command configuration. The file holds the same keys as the
// flags; flags given on the command line win.
type config struct {
	Backend    string `toml:"backend"`
	NativeEGL  string `toml:"native_egl"`
	NativeGLES string `toml:"native_gles"`
	AngleDir   string `toml:"angle_dir"`
	Display    string `toml:"display"`
	Headless   bool   `toml:"headless"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Title      string `toml:"title"`
	Snapshot   string `toml:"snapshot"`
	LogLevel   string `toml:"log_level"`
}

func defaultConfig() config {
	return config{
		NativeEGL:  "libEGL.so.1",
		NativeGLES: "libGLESv2.so.2",
		AngleDir:   "/opt/angle",
		Width:      256,
		Height:     256,
		Title:      "texbridge",
		LogLevel:   "warn",
	}
}

const configFile = "config.toml"

// configDir follows the XDG base directory layout.
func configDir(getenv func(string) string) string {
	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(getenv("HOME"), ".config")
	}
	return filepath.Join(base, "texbridge")
}

// loadConfig decodes path over the defaults. A missing file is only an
// error when the path was given explicitly.
func loadConfig(path string, explicit bool) (config, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return defaultConfig(), nil
		}
		return config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// options are the parsed command line.
type options struct {
	configPath string
	set        map[string]bool
	flags      config
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opt options
	fset := flag.NewFlagSet("texbridge", flag.ContinueOnError)
	fset.SetOutput(output)
	d := defaultConfig()
	fset.StringVar(&opt.configPath, "config", "", "configuration file (default $XDG_CONFIG_HOME/texbridge/config.toml)")
	fset.StringVar(&opt.flags.Backend, "backend", "", "driver backend: egl or soft (default: best available)")
	fset.StringVar(&opt.flags.NativeEGL, "native-egl", d.NativeEGL, "EGL library of the native driver")
	fset.StringVar(&opt.flags.NativeGLES, "native-gles", d.NativeGLES, "GLES library of the native driver")
	fset.StringVar(&opt.flags.AngleDir, "angle-dir", d.AngleDir, "directory holding the secondary driver's libEGL.so and libGLESv2.so")
	fset.StringVar(&opt.flags.Display, "display", "", "X display (default $DISPLAY)")
	fset.BoolVar(&opt.flags.Headless, "headless", false, "use pbuffers, verify the shared texture and exit")
	fset.IntVar(&opt.flags.Width, "width", d.Width, "texture and window width")
	fset.IntVar(&opt.flags.Height, "height", d.Height, "texture and window height")
	fset.StringVar(&opt.flags.Title, "title", d.Title, "window title")
	fset.StringVar(&opt.flags.Snapshot, "snapshot", "", "write the imported texture to this .png, .bmp or .tiff file")
	fset.StringVar(&opt.flags.LogLevel, "log", d.LogLevel, "log level: debug, info, warn or error")
	if err := fset.Parse(args); err != nil {
		return options{}, err
	}
	if fset.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected argument %q", fset.Arg(0))
	}
	opt.set = make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { opt.set[f.Name] = true })
	return opt, nil
}

// apply overrides cfg with the flags given on the command line.
func (o options) apply(cfg *config) {
	overrides := map[string]func(){
		"backend":     func() { cfg.Backend = o.flags.Backend },
		"native-egl":  func() { cfg.NativeEGL = o.flags.NativeEGL },
		"native-gles": func() { cfg.NativeGLES = o.flags.NativeGLES },
		"angle-dir":   func() { cfg.AngleDir = o.flags.AngleDir },
		"display":     func() { cfg.Display = o.flags.Display },
		"headless":    func() { cfg.Headless = o.flags.Headless },
		"width":       func() { cfg.Width = o.flags.Width },
		"height":      func() { cfg.Height = o.flags.Height },
		"title":       func() { cfg.Title = o.flags.Title },
		"snapshot":    func() { cfg.Snapshot = o.flags.Snapshot },
		"log":         func() { cfg.LogLevel = o.flags.LogLevel },
	}
	for name := range o.set {
		if fn, ok := overrides[name]; ok {
			fn()
		}
	}
}

func (c config) validate() error {
	if c.Width <= 0 || c.Height <= 0 || c.Width > dmabridge.MaxTextureSize || c.Height > dmabridge.MaxTextureSize {
		return fmt.Errorf("invalid size %dx%d", c.Width, c.Height)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.Snapshot != "" {
		if _, err := snapshotEncoder(c.Snapshot); err != nil {
			return err
		}
	}
	return nil
}

func (c config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return l, nil
}

// secondaryLibraries returns the library paths of the secondary driver.
func (c config) secondaryLibraries() (egl, gles string) {
	return filepath.Join(c.AngleDir, "libEGL.so"), filepath.Join(c.AngleDir, "libGLESv2.so")
}
