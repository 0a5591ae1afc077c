// Package metrics exposes engine counters via expvar: sessions started
// and terminated (by reason), and compile outcomes. Consumers scrape them
// from the standard /debug/vars endpoint.
package metrics
