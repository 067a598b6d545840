package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays ROMCOM_* variables. Unset variables leave the field as is.
func parseEnv(config *Config) error {
	return cleanenv.ReadEnv(config)
}
