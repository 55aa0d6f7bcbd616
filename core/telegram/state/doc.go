// Package state keeps per-actor conversation state in process memory.
//
// Every actor owns at most one Session holding a State and a small bag of
// temporary values. Consume/Take operations check and clear in one critical
// section, so a pending flag or binding can be consumed only once even when
// updates for the same actor race. Nothing here is persisted: a restart
// returns every actor to StateIdle.
package state
