// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

/*
Package supervisor arranges Amora's long-running services into a suture v4
supervision tree.

The tree has three child supervisors so a failure stays contained within
its layer:

	amora
	├── data-layer        store.AsyncWriter, BadgerGCService
	├── messaging-layer   ws.Hub, events.Notifier
	└── api-layer         HTTPServerService

A crashing notifier is restarted without touching open WebSocket
connections, and a wedged store writer never takes down the HTTP listener.
Restart policy (failure threshold, decay, backoff) and the per-service
shutdown timeout come from TreeConfig; DefaultTreeConfig matches suture's
defaults.

Services implement suture.Service. Returning an error restarts the service
with backoff, returning nil retires it, and on context cancellation a
service should return promptly or it shows up in UnstoppedServiceReport
after shutdown. store.AsyncWriter, events.Notifier, and ws.Hub satisfy the
interface natively; anything with a different lifecycle shape (the HTTP
server, Badger value-log GC) is wrapped in internal/supervisor/services.

The match engine itself is not supervised. It is an in-process library
whose score workers are scoped to each queue rebuild, so a scoring failure
surfaces as a request error rather than a dead service. The candidate and
oracle clients are request-scoped and carry their own circuit breakers.

Typical wiring:

	logger := logging.NewSlogLogger()
	tree := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())

	tree.AddDataService(writer)
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
	    // errCh closes once the tree has wound down
	}

Suture's lifecycle events (start, stop, failure, backoff) flow through the
slog handler passed to NewSupervisorTree; logging.NewSlogLogger bridges
them into the process zerolog logger.
*/
package supervisor
