package config

// RenderConfig configures image output.
type RenderConfig struct {
	TitleFont   string `yaml:"title_font"` // file in Dir; heavy face for titles
	TextFont    string `yaml:"text_font"`  // file in Dir; oblique face for numbers
	JPEGQuality int    `yaml:"jpeg_quality" env:"GSABYSS_JPEG_QUALITY"`
}
