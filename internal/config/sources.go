package config

// SourcesConfig locates the upstream data.
type SourcesConfig struct {
	DatasetURL  string `yaml:"dataset_url" env:"GSABYSS_DATA_URL"`  // HHW abyss dataset mirror
	ResourceURL string `yaml:"resource_url" env:"GSABYSS_RES_URL"`  // fonts and static icons, file name appended
	AkashaURL   string `yaml:"akasha_url" env:"GSABYSS_AKASHA_URL"` // statistics script

	// Printf pattern taking the character's English name
	CharacterIconURL string `yaml:"character_icon_url" env:"GSABYSS_CHAR_ICON_URL"`
}
