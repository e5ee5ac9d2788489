// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

/*
Package main is the entry point for the Amora server application.

Amora is the matching core of a conversational dating assistant. It scores
compatibility between user profiles with a hybrid model (circumplex
personality signatures blended with weighted factual attributes), learns
per-user preference weights from interaction signals, maintains
recommendation queues with never-repeat delivery, and decides when a
conversation warrants surfacing a new recommendation.

# Application Architecture

The server implements a layered architecture with Suture v4 process supervision:

	RootSupervisor ("amora")
	├── DataSupervisor ("data-layer")
	│   ├── Async store writer (write-behind persistence)
	│   └── Badger GC (value-log compaction, badger backend only)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (match notifications)
	│   └── Match Notifier (event bus consumer)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (REST API)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Store: BadgerDB (persistent) or memory backend, behind an async writer
 4. Event Bus: Watermill in-process pub/sub for interaction events
 5. WebSocket Hub: Real-time match notifications (optional)
 6. Upstream Clients: Candidate source and match oracle, circuit-broken
 7. Authentication: JWT or no-auth mode for the admin surface
 8. Match Engine: Scoring, learning, queueing, and trigger policy
 9. Supervisor Tree: Suture v4 process supervision
 10. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	HTTP_PORT=8824               # HTTP server port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Admin authentication
	AUTH_MODE=jwt                # jwt or none
	JWT_SECRET=<32+ chars>       # Required for JWT mode
	ADMIN_USERNAME=admin
	ADMIN_PASSWORD=<password>

	# Store
	STORE_BACKEND=badger         # badger or memory
	STORE_PATH=/data/amora       # Badger data directory

	# Upstream services
	CANDIDATES_URL=http://candidates:9000
	CANDIDATES_API_KEY=<key>
	ORACLE_URL=http://oracle:9100
	ORACLE_API_KEY=<key>

	# Engine tunables
	MATCH_HHC_WEIGHT=0.6         # Personality share of the total score
	MATCH_FACTUAL_WEIGHT=0.4     # Factual share of the total score
	MATCH_QUEUE_SIZE=20          # Recommendations per queue population

An optional YAML file (config.yaml, or AMORA_CONFIG_PATH) supplies the same
settings for persistent deployments.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:
  - Stops accepting new connections
  - Waits for in-flight requests to complete (10s timeout)
  - Drains the async write queue to the store
  - Closes the event bus and store

# Example Usage

Development with the in-memory store and no auth:

	export STORE_BACKEND=memory
	export AUTH_MODE=none
	export LOG_FORMAT=console
	./amora

Production with Badger persistence and JWT admin auth:

	export STORE_BACKEND=badger
	export STORE_PATH=/data/amora
	export JWT_SECRET=$(openssl rand -base64 32)
	export ADMIN_USERNAME=admin
	export ADMIN_PASSWORD=secure-password
	export CANDIDATES_URL=http://candidates:9000
	export ORACLE_URL=http://oracle:9100
	./amora

Docker:

	docker run -d \
	  -e STORE_BACKEND=badger \
	  -e JWT_SECRET=<secret> \
	  -e CANDIDATES_URL=http://candidates:9000 \
	  -e ORACLE_URL=http://oracle:9100 \
	  -v amora-data:/data/amora \
	  -p 8824:8824 \
	  ghcr.io/pmahlen/amora
*/
package main
