// Package dashboard serves the computed metrics views (dashboard, trends,
// validation, attempts and cooldown).
//
// Each view is cached under "<view>_cache_latest[:filter]". A request
// returns a cached entry while it is younger than the TTL and newer than
// the last upload; otherwise one replica recomputes it under a
// distributed lock and writes it back.
package dashboard
