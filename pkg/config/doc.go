// Package config loads typed configuration structs from environment
// variables, reading an optional .env file first.
//
//	type ServerConfig struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	cfg, err := config.Load[ServerConfig]()
//
// MustLoad panics on failure and is meant for main(), where a missing
// required variable should stop the process.
package config
