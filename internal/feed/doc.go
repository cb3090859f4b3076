// Package feed assembles ranked, paginated profile feeds.
//
// A feed request lists every eligible candidate from the profile store,
// asks the ranking oracle for a relevance order against the viewer's
// free-text description, merges that order with the candidates the oracle
// did not mention, and returns one page. Ranked pages are cached under a key
// derived from the viewer description, a fingerprint of the candidate
// population, the filter scope and the page coordinates, so unchanged data
// never pays for a second oracle call within the cache TTL.
//
// Anonymous viewers, and viewers without a description, get the store order
// and bypass both the oracle and the cache. Oracle and cache failures degrade
// the response; only a profile store failure fails the request.
package feed
