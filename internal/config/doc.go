// Package config provides configuration management for avaportal.
//
// Configuration is layered, lowest precedence first:
//
//  1. Built-in defaults (Default)
//  2. An optional YAML file passed with --config
//  3. An optional dotenv file (.env by default), which never overrides
//     variables already present in the process environment
//  4. Environment variables such as KINDE_CLIENT_ID or BACKEND_URL
//
// Validate reports missing or malformed identity provider, backend and
// session settings. ValidateStorage reports problems with the knowledge
// document store. Both return ValidationErrors so every problem can be shown
// at once.
package config
