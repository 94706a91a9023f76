// Package ytdlp builds the declarative option set for the external retrieval
// engine and wraps its CLI invocations.
//
// Options is a pure value: rendering it to an argument list involves no I/O,
// which keeps the configurator unit-testable against exact argv. The Client
// owns the side effects (directory creation, cookie jar stat, runtime
// lookup, process execution).
package ytdlp
