// Package detect implements the Black-Cross detection and correlation
// engine: stateless condition evaluation and rule matching, sliding
// time-window state sharded across single-threaded workers, threshold and
// grouped-correlation detection, and suppressed trigger emission to the
// external alert collaborator.
package detect
