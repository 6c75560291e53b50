// Package connectors holds one source fetcher per content provider and
// assembles them for the aggregator.
//
// Each subpackage knows how to read recent content from one service
// (Google APIs, Notion, GitHub, the public trend feed) and map it to
// domain.ContentItem. Fetchers receive a fresh credential on every call and
// keep no per-user state.
package connectors
