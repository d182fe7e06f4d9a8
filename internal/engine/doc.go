// SPDX-License-Identifier: MPL-2.0

// Package engine holds the narrow collaborator surfaces the launcher calls
// into: the dependency service over recorded outputs, the command service
// over live-run markers, the event registration API, the resource-limit API,
// the stage executor, and the diagram/documentation renderer. The launcher
// only dispatches through these interfaces; stage-graph semantics and
// dependency tracking live behind them.
package engine
