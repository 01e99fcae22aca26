package discovery

import (
	"context"
	"log/slog"
)

// ServerAdder receives discovered server addresses.
type ServerAdder interface {
	AddServer(addr string) error
}

// Watch browses until ctx ends and hands every discovered server to
// target.
func Watch(ctx context.Context, b *Browser, target ServerAdder, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	results, err := b.Browse(ctx)
	if err != nil {
		return err
	}
	for svc := range results {
		addr := svc.Addr()
		if err := target.AddServer(addr); err != nil {
			logger.Warn("cannot add discovered server", "server", addr, "error", err)
			continue
		}
		logger.Info("discovered server", "instance", svc.Instance, "server", addr, "pvs", svc.PVCount)
	}
	return ctx.Err()
}
