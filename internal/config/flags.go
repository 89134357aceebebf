package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagManifest    = flag.String("manifest", "", "Shader-set manifest")
	flagSet         = flag.String("set", "", "Shader set name")
	flagUniformSize = flag.Int("uniform-size", 0, "Uniform buffer bytes per frame")
	flagWidth       = flag.Int("width", 0, "TV color buffer width")
	flagHeight      = flag.Int("height", 0, "TV color buffer height")
	flagFrames      = flag.Int("frames", -1, "Frames to render, 0 runs until closed")
	flagHeadless    = flag.Bool("headless", false, "Run without a window")
	flagCapture     = flag.String("capture", "", "Directory for scan buffer captures")
	flagEvery       = flag.Int("capture-every", 0, "Capture every N frames")
	flagFormat      = flag.String("capture-format", "", "Capture format (png, bmp)")
	flagSave        = flag.Bool("save-config", false, "Write the effective config to the user config dir")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveRequested reports whether --save-config was given.
func SaveRequested() bool {
	return *flagSave
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagManifest != "" {
		cfg.Shader.Manifest = *flagManifest
	}
	if *flagSet != "" {
		cfg.Shader.Set = *flagSet
	}
	if *flagUniformSize > 0 {
		cfg.Shader.UniformBufferSize = *flagUniformSize
	}
	if *flagWidth > 0 {
		cfg.Display.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Display.Height = *flagHeight
	}
	if *flagFrames >= 0 {
		cfg.Run.Frames = *flagFrames
	}
	if *flagHeadless {
		cfg.Display.Headless = true
	}
	if *flagCapture != "" {
		cfg.Capture.Dir = *flagCapture
		if cfg.Capture.Every == 0 {
			cfg.Capture.Every = 1
		}
	}
	if *flagEvery > 0 {
		cfg.Capture.Every = *flagEvery
	}
	if *flagFormat != "" {
		cfg.Capture.Format = *flagFormat
	}
}
