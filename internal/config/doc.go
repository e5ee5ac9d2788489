// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

/*
Package config provides application configuration via Koanf v2.

Configuration is assembled from three layers, each overriding the last:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (config.yaml, config.yml, /etc/amora/config.yaml,
    /etc/amora/config.yml, or the path in AMORA_CONFIG_PATH)
 3. Environment variables

# Environment Variables

Only variables listed in envMappings are consumed. Names are matched
case-insensitively, so HTTP_PORT and http_port both map to server.port.
Unlisted variables are ignored, which keeps unrelated environment noise out
of the configuration.

Duration values accept Go duration strings ("30s", "5m", "24h"). Slice values
(CORS_ORIGINS) accept comma-separated strings.

# Example

	STORE_BACKEND=memory \
	AUTH_MODE=none \
	LOG_LEVEL=debug \
	./amora

# Validation

Load fails fast with an error naming the offending environment variable when
a value is out of range or the combination of settings is inconsistent, for
example AUTH_MODE=jwt without JWT_SECRET.

# Hot Reload

WatchConfigFile re-loads the full configuration when the config file changes
and hands the new *Config to a callback. Components that support live
reconfiguration subscribe in cmd/server.
*/
package config
