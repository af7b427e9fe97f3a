// Package lifecycle builds the resource graph of an extension unit.
//
// # Overview
//
// The tracker starts at the default-exported class of extension.js and
// follows ownership edges into helper classes:
//
//	extension.js: default class       (enable ... disable)
//	       |
//	       | this._manager = new Manager()
//	       v
//	lib/manager.js: Manager           (enable ... destroy)
//	       |
//	       | this._controller = new Controller()
//	       v
//	lib/controller.js: Controller     (enable ... destroy)
//
// For each tracked class it collects the calls made from its activation
// scope, matches them against the [Shape] table and records a [Handle]
// per acquisition. The class's release method is then walked once and
// each handle is marked released when a kind-matching release runs on
// every path.
//
// # Release Paths
//
// The walk understands a small set of statement shapes:
//
//	┌──────────────────────────┬──────────────────────────────────────────┐
//	│ Shape                    │ Effect on releases                       │
//	├──────────────────────────┼──────────────────────────────────────────┤
//	│ sequence                 │ every statement runs                     │
//	│ if (c) return;           │ later statements run under c             │
//	│ if (c) { ... }           │ branch runs under c                      │
//	│ try / catch / finally    │ catch never counts, finally always does  │
//	│ return / throw           │ nothing after them runs                  │
//	│ for..of, forEach         │ counts for handles pushed into the loop  │
//	│                          │ collection only                          │
//	│ switch                   │ cases run under the discriminant         │
//	│ this.m()                 │ inlines the events of m                  │
//	│ callbacks                │ never counts                             │
//	└──────────────────────────┴──────────────────────────────────────────┘
//
// A condition only holds for a handle when it tests the handle itself
// (its symbol, receiver or collection), as in:
//
//	if (this._timeoutId) {
//	    GLib.Source.remove(this._timeoutId);
//	    this._timeoutId = null;
//	}
//
// # Ownership
//
// A helper's handles are checked against the helper's own release
// method. [OwnershipEdge.ReleaseCalled] records whether the owner calls
// that method, and [Handle.Attributed] whether the chain of edges reaches
// back to the extension class. A handle released by a helper that is
// never itself released still counts as leaked.
//
// # Async
//
// Awaited calls, .then() continuations and *_async callbacks get a
// handle of [KindAsync]. [Handle.GuardMissing] is set when the code that
// runs after completion touches this before testing a field assigned in
// the release method or calling is_cancelled().
package lifecycle
