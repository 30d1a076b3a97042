// Package handlers implements the HTTP surface: on-demand thumbnail
// and media renditions, raw file downloads, and the health and version
// endpoints.
package handlers
