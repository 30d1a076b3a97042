// Package mediatypes defines the closed set of decode strategies the
// pipeline recognizes, along with extension and MIME type tables shared
// across packages.
package mediatypes
