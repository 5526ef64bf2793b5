package httpapi

import "sync"

// ingestionStats tracks per-source webhook counts and last-seen timestamps
// for the /health endpoint's per-source ingestion counters.
type ingestionStats struct {
	mu        sync.Mutex
	counts    map[string]uint64
	lastSeen  map[string]int64 // unix millis
}

func newIngestionStats() *ingestionStats {
	return &ingestionStats{
		counts:   make(map[string]uint64),
		lastSeen: make(map[string]int64),
	}
}

func (s *ingestionStats) record(source string, atUnixMS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[source]++
	s.lastSeen[source] = atUnixMS
}

func (s *ingestionStats) snapshot() []SourceHealth {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SourceHealth, 0, len(s.counts))
	for source, count := range s.counts {
		out = append(out, SourceHealth{
			Source:     source,
			Count:      count,
			LastSeenMS: s.lastSeen[source],
		})
	}
	return out
}
