// Package ingest holds the shared domain model for the legislative graph
// ingestion pipeline: the records produced by the scrapers, the typed failure
// taxonomy, the id derivation rules, and the collaborator interfaces the
// pipeline depends on (fetcher, graph sink, clock, id generator, publisher).
//
// Records carry both the raw senator name seen in the source and the resolved
// canonical id. Resolution and deduplication happen after collection, so a
// record leaving a parser has SenatorName set and SenatorID empty.
package ingest
