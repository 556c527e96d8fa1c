// Package memory provides process-local order and stock adjustment stores
// for the "memory" database driver. Data is lost on restart.
package memory
