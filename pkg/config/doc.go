// Package config loads typed configuration structs from environment
// variables.
//
// Load parses `env` struct tags via caarlos0/env, after loading a .env file
// once per process if one exists. Each configuration type is parsed once and
// cached, so multiple components can load the same struct without repeated
// environment reads.
package config
