// Package server implements the HTTP API using Echo framework.
//
// All routes are JSON under /api/tenants/:tenant, plus health and metrics
// endpoints. Broadcast-triggering POSTs are rate limited per tenant.
package server
