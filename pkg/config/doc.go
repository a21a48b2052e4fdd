// Package config provides configuration management for the WEFT core.
//
// # Overview
//
// The config package centralizes display, audio, and timing defaults plus
// the program-size limits enforced while building the dataflow graph. A
// Config seeds the Env when a program does not assign its own values
// (width, height, fps, tempo, ...).
//
// # Usage
//
//	cfg := config.Default()
//	cfg.Width = 1920
//	cfg.Height = 1080
//	if err := cfg.Validate(); err != nil {
//	    // Handle invalid configuration
//	}
package config
