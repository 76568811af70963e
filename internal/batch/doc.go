// Package batch runs one pipeline stage over a planned list of files.
//
// Every file is isolated: a failure is logged, traced and recorded in its
// Result, and the remaining files still run. Results come back in plan order
// regardless of the worker count.
package batch
