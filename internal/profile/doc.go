// Package profile holds the types shared by every profile lookup strategy:
// the lookup result returned to callers and the helpers that build canonical
// profile URLs and manual search fallbacks.
package profile
