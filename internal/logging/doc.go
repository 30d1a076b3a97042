// Package logging provides leveled logging on top of the standard
// library logger. The level is controlled by the DEBUG and LOG_LEVEL
// environment variables and defaults to info.
package logging
