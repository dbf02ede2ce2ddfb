package multivibrator

import (
	"context"

	"google.golang.org/grpc/metadata"

	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
)

// Metadata keys carrying the calling actor.
const (
	MetadataHostname = "x-actor-hostname"
	MetadataUsername = "x-actor-username"
)

// OutgoingActor attaches actor to the outgoing request metadata.
func OutgoingActor(ctx context.Context, actor *domain.Actor) context.Context {
	if actor == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx,
		MetadataHostname, actor.Hostname,
		MetadataUsername, actor.Username,
	)
}

// IncomingActor extracts the caller from the request metadata.
// It returns nil when the caller did not identify itself.
func IncomingActor(ctx context.Context) *domain.Actor {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	actor := &domain.Actor{
		Hostname: first(md.Get(MetadataHostname)),
		Username: first(md.Get(MetadataUsername)),
	}

	if actor.Hostname == "" && actor.Username == "" {
		return nil
	}

	return actor
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return values[0]
}
