// Package api hosts the admin HTTP server. Routes:
//   - GET /healthz for liveness.
//   - GET /readyz pings the graph store.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/runs/last returns the most recent run report.
package api
