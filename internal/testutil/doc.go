// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when constructing histories, agents and scripted
// models, and when draining lazy sequences. They are not intended for
// production usage.
package testutil
