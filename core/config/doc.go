// Package config provides type-safe environment variable loading with
// caching using Go generics. Each configuration type is loaded once and
// cached for subsequent calls.
//
// A .env file, when present, is loaded into the process environment on
// first use; parsing is done by the caarlos0/env library based on struct
// tags.
//
// Basic usage:
//
//	type RedisConfig struct {
//		URL string `env:"REDIS_URL,required"`
//	}
//
//	var cfg RedisConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure (useful for startup)
//	config.MustLoad(&cfg)
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime;
// later loads of the same type return the cached value, so configuration
// is consistent within a process. Different types are cached
// independently.
package config
