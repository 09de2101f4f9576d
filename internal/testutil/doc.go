// Package testutil contains helper builders used across tests to reduce
// boilerplate when scripting model backends and their responses. They are
// not intended for production usage.
package testutil
