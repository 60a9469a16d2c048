// Package main hosts the senado-ingest entrypoint.
//
// Architecture overview:
//   - Sources: the Senate tramitacion web service (XML, one request per day and one per boletin) and the
//     senator and lobby listings (HTML tables). Requests go through a Colly fetcher with per-host rate limiting
//     and exponential backoff; 5xx and connection errors are retried, 4xx are not.
//   - Fan-out: Level 1 fetches the configured window of days with fanout.day_workers goroutines; Level 2 starts
//     only after Level 1 completes and fetches the votes of every distinct law with fanout.vote_workers
//     goroutines. A failed unit is recorded in the run report and never aborts its level.
//   - Reduce: raw senator spellings are resolved against the senator listing (aliases, exact, given name, then a
//     slug fallback) and records are deduplicated by natural key before loading. Aliases are configured as a
//     resolver.aliases list of {raw, canonical} entries.
//   - Staging: "scrape" writes the raw dataset to the staging store (local directory, GCS bucket or memory), and
//     "load" reads it back, so the two halves can run as separate processes.
//   - Graph: nodes and relationships are merged into Neo4j in batches; VOTED_SAME edges are computed locally or
//     by the store (similarity.mode). Each load writes an Update node.
//   - Run lifecycle: every command produces a RunReport that is printed, recorded in Postgres when runlog.dsn is
//     set, and published to Pub/Sub when pubsub.project_id and pubsub.topic_name are set.
//
// Operational notes:
//   - Observability: zap logs carry run_id and command; Prometheus counters track fetches, units, records,
//     resolution strategies and sink writes; the progress hub forwards unit events to the log and Prometheus
//     sinks. The admin server (server.port > 0) exposes /healthz, /readyz, /metrics and /v1/runs/last.
//   - The whole invocation is bounded by run.timeout_minutes and reacts to SIGINT/SIGTERM.
//   - Exit status is non-zero when the graph store is unreachable or a load aborts; failed units alone do not
//     change it.
//
// Quick checklist:
//   - Configure env vars: SENADO_NEO4J_URI, SENADO_NEO4J_PASSWORD, SENADO_FANOUT_DAYS, SENADO_STAGING_BACKEND,
//     SENADO_RUNLOG_DSN, SENADO_PUBSUB_PROJECT_ID and SENADO_PUBSUB_TOPIC_NAME as needed.
//   - Run locally: go run ./cmd/senado-ingest run --config config.yaml
//   - Split mode: senado-ingest scrape --phase all && senado-ingest load
//   - Rebuild from staging: senado-ingest clear --yes && senado-ingest load
package main
