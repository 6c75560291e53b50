// Package trends reads the public daily trending-searches RSS feed.
// It needs no credential.
package trends
