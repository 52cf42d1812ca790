// Package config loads runtime configuration for the workload tracker CLI.
//
// # Sources & precedence
//
//  1. Built-in defaults (see Defaults).
//  2. Optional YAML file: --config, else ~/.workloadtracker.yaml.
//  3. Environment variables prefixed with WT_ (WT_SERVER_URL, WT_USERNAME,
//     WT_TOKEN_FILE, WT_TIMEOUT).
//  4. Command-line flags bound from the cobra command.
//
// # YAML schema
//
//	server_url: http://localhost:3001
//	username: admin
//	token_file: /home/me/.config/workloadtracker/token
//	timeout: 30s
package config
