// Package config loads colloquy settings from a TOML file.
//
// Every key is optional. Missing keys keep the values from Default, so a
// file only needs the settings it changes:
//
//	[ai]
//	host = "http://localhost:11434"
//	embedding_model = "nomic-embed-text"
//
//	[storage]
//	path = "/var/lib/colloquy"
//
//	[timeouts]
//	web = "15s"
//
// Unknown keys are rejected so typos surface at startup.
package config
