// Package wizard implements the four-step audit creation state machine.
//
// The controller gates forward navigation on the general and standards steps,
// couples template choice to the selected category, edits sessions through
// detached editors, and submits a frozen copy of the draft exactly once at a
// time.
package wizard
