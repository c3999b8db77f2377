// Package engine contains the game loop and simulation logic.
// This is the heartbeat of the clicker.
//
// ARCHITECTURAL RULE: nothing outside the Store mutates GameState.
// Systems read snapshots, compute deltas with the rules package and
// dispatch actions; the Store reduces them one at a time.
package engine
