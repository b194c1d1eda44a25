// Package display renders progress snapshots for a terminal.
//
// [Renderer] writes plain text blocks and suits pipes and log files. [Model]
// is a bubbletea view for interactive terminals. Both consume
// progress.Snapshot values, either directly as a progress.Sink or from the
// event bus through [BusSink] and [Subscribe], which lets one tracker feed
// several displays at once.
package display
