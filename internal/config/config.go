// Package config handles gx2view configuration loading and management.
package config

// Config holds all settings.
type Config struct {
	Display DisplayConfig `yaml:"display"`
	Shader  ShaderConfig  `yaml:"shader"`
	Memory  MemoryConfig  `yaml:"memory"`
	Run     RunConfig     `yaml:"run"`
	Capture CaptureConfig `yaml:"capture"`
	Logging LoggingConfig `yaml:"logging"`
}

// DisplayConfig holds color buffer and scan-out settings.
type DisplayConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	DRCWidth  int     `yaml:"drc_width"`
	DRCHeight int     `yaml:"drc_height"`
	VSync     bool    `yaml:"vsync"`
	Headless  bool    `yaml:"headless"`
	DRCScale  float32 `yaml:"drc_scale"` // DRC inset width relative to the window
}

// ShaderConfig holds shader program settings.
type ShaderConfig struct {
	Manifest          string `yaml:"manifest"`            // Path to the shader-set manifest
	Set               string `yaml:"set"`                 // Shader set name, empty for the first
	UniformBufferSize int    `yaml:"uniform_buffer_size"` // Bytes of uniform data per frame
}

// MemoryConfig holds GPU-visible memory settings.
type MemoryConfig struct {
	HeapSizeMB int `yaml:"heap_size_mb"`
}

// RunConfig holds frame loop settings.
type RunConfig struct {
	Frames int `yaml:"frames"` // 0 runs until the window is closed
}

// CaptureConfig holds scan buffer capture settings.
type CaptureConfig struct {
	Dir    string `yaml:"dir"`
	Every  int    `yaml:"every"`  // Capture every N frames, 0 disables
	Format string `yaml:"format"` // png or bmp
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			Width:     1280,
			Height:    720,
			DRCWidth:  854,
			DRCHeight: 480,
			VSync:     true,
			Headless:  false,
			DRCScale:  0.3,
		},
		Shader: ShaderConfig{
			Manifest:          "shaders/shaders.yaml",
			UniformBufferSize: 4096,
		},
		Memory: MemoryConfig{
			HeapSizeMB: 64,
		},
		Run: RunConfig{
			Frames: 0,
		},
		Capture: CaptureConfig{
			Dir:    "captures",
			Every:  0,
			Format: "png",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
