package dedupe

// Package dedupe provides shared singleflight groups used to collapse
// concurrent duplicate work. Using a centralized singleflight.Group ensures
// that only one resolution job runs for a given key while other callers
// wait for the result.

import "golang.org/x/sync/singleflight"

// SnapshotGroup deduplicates deck snapshot resolutions keyed by deck id.
// Two queue joins racing on the same deck resolve it once.
var SnapshotGroup singleflight.Group

// LeaderboardGroup deduplicates leaderboard reads keyed by the requested
// limit, since the query fans out from every connected client at once.
var LeaderboardGroup singleflight.Group
