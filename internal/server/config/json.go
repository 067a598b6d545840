package config

import (
	"encoding/json"
	"os"

	"github.com/romcom/romcom-auth/internal/flagx"
	"github.com/romcom/romcom-auth/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Only keys present in
// the file override the current values.
type JsonConfig struct {
	Env                          *string         `json:"env"`
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	RefreshTokenStore            *string         `json:"refresh_token_store"`
	RedisURL                     *string         `json:"redis_url"`
	SecretKey                    *string         `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	WriteTimeout                 *timex.Duration `json:"write_timeout"`
	Argon2MemoryKiB              *uint32         `json:"argon2_memory_kib"`
	Argon2Time                   *uint32         `json:"argon2_time"`
	Argon2Threads                *uint8          `json:"argon2_threads"`
}

func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var c JsonConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}

	setIf(&config.Env, c.Env)
	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.RefreshTokenStore, c.RefreshTokenStore)
	setIf(&config.RedisURL, c.RedisURL)
	setIf(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.WriteTimeout != nil {
		config.WriteTimeout = c.WriteTimeout.Duration
	}
	setIf(&config.Argon2MemoryKiB, c.Argon2MemoryKiB)
	setIf(&config.Argon2Time, c.Argon2Time)
	setIf(&config.Argon2Threads, c.Argon2Threads)

	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
