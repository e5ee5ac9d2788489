// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

/*
Package services wraps components whose lifecycle does not already fit
suture.Service so they can run under the supervision tree.

Most of Amora's long-running components need no wrapper: store.AsyncWriter,
events.Notifier, and ws.Hub expose Serve(ctx) directly. The two that do
not live here:

  - HTTPServerService turns *http.Server's ListenAndServe/Shutdown pair
    into a context-driven Serve with a bounded drain on cancellation.
  - BadgerGCService runs one value-log GC round per tick against the
    persistent store; a failed round simply waits for the next tick. It is
    only registered when the store is Badger-backed.

Wiring follows the tree's layer scheme:

	tree := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	tree.AddDataService(services.NewBadgerGCService(badgerStore, 10*time.Minute, 0.5, logger))

Both wrappers return nil only for clean shutdown; any other return is a
crash that suture answers with a backoff restart. Each implements
fmt.Stringer ("http-server", "badger-gc") so lifecycle log lines name the
service. A wrapper instance is good for one Serve at a time.
*/
package services
