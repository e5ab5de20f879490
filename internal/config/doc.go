// Package config provides centralized configuration management for the
// StreaminDoDo action server, loading a JSON file and filling in defaults for
// the webhook listener, the upstream status API, content overrides, and the
// interaction analytics backends.
package config
