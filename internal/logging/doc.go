// Package logging provides concrete implementations of the bronzeload.Logger
// interface. ConsoleLogger writes run status to a terminal-friendly stream;
// NullLogger discards everything and backs the logging-disabled mode.
package logging
