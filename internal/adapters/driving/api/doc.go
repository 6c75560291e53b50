// Package api is the HTTP surface of the briefing server, built on gin.
//
// Routes under /api require a bearer session token whose subject is the
// user id. The provider OAuth callback, health probes, metrics and the
// /media directory are public. Briefing generation streams its progress as
// server-sent events on the response of POST /api/briefings/generate.
package api
