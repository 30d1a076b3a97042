// Command thumbgen generates a single thumbnail or media rendition
// from the command line, bypassing the HTTP server.
package main
