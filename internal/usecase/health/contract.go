package health

import "context"

// Pinger checks cache store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ArtifactChecker reports whether the load-once artifacts are usable.
type ArtifactChecker interface {
	CheckArtifacts() error
}
