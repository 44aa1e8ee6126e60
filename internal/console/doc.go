// Package console drives the audit creation wizard from a terminal.
//
// A Runner walks the wizard pages through a Prompter. HuhPrompter renders
// interactive forms and LinePrompter reads plain answers from any reader, which
// keeps scripted and piped sessions usable. Rendering helpers format item
// trees, review summaries, and persisted audits with lipgloss styles.
package console
