// Package ui implements the terminal capture monitor using the Elm architecture via bubbletea.
//
// The monitor subscribes to capture events from a running scheduler and renders
// the currently recording track with a progress bar, plus a short activity log
// of published, skipped and failed captures.
//
// State flows through [Msg] values (an Elm-style message union) produced by a
// channel subscription command; q or ctrl+c quits the monitor without stopping
// the capture run.
package ui
