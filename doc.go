// Package backend provides the kawaii-gallery API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Kakao OAuth login and JWT session handling
// - internal/engagement: Like toggle engine and ranked post reads
// - internal/ranking: Daily dedup window and like leaderboard (Redis)
// - internal/feather: Feather currency ledger
// - internal/clock: Midnight boundary arithmetic for the daily windows
// - internal/notifications: FCM push delivery
// - internal/cache: Redis connection and operations
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (logging, metrics, rate limiting)
// - internal/metrics: Prometheus metrics

// See the individual package documentation for detailed API reference.
package backend
