package auth

import (
	"github.com/gofrs/uuid"
	"github.com/haveachin/barebones/pkg/profile"
	"go.uber.org/zap"
)

// Helpers to keep log fields consistent across operations.

func logRequest(op, url string) []zap.Field {
	return []zap.Field{
		zap.String("operation", op),
		zap.String("url", url),
	}
}

func logProfile(g profile.GameProfile) []zap.Field {
	return []zap.Field{
		zap.String("username", g.Name()),
		zap.Stringer("uuid", g.UUID()),
		zap.Int("properties", len(g.Properties())),
	}
}

func logLookup(username string, id uuid.UUID) []zap.Field {
	return []zap.Field{
		zap.String("username", username),
		zap.Stringer("uuid", id),
	}
}
