// Package stage implements a deterministic, single-stepping pipeline
// simulator: a directed graph of named stages, each with private state and a
// bounded input mailbox, driven one effect at a time by a Driver.
//
// A stage's logic never runs freely: every externally observable action
// (receiving the next message, sending to another stage, interrupting the
// whole driver, waiting for virtual time to pass, or reading the virtual
// clock) is surfaced as an Effect that the Driver must explicitly resume.
// This makes the schedule fully reproducible given the same builder
// configuration and the same sequence of external calls.
//
// NOTE: capacity == 0 (true rendezvous) mailboxes are not supported.
// Builder.WithMailboxSize does not reject 0, but a stage's Send into a
// zero-capacity mailbox never finds room.
package stage
