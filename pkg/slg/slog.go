package slg

import (
	"context"
	"log/slog"
)

type slogStruct struct {
	Name string
}

var slogKey = &slogStruct{Name: "slog"}

func Lookup(ctx context.Context) (*slog.Logger, bool) {
	log, ok := ctx.Value(slogKey).(*slog.Logger)
	return log, ok && log != nil
}

// GetSlog returns the request logger stored in ctx, or slog.Default() if there is none.
func GetSlog(ctx context.Context) *slog.Logger {
	if log, ok := Lookup(ctx); ok {
		return log
	}

	return slog.Default()
}

func WithSlog(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, slogKey, log)
}
