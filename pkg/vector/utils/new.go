package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/papercomputeco/winter/pkg/vector"
	"github.com/papercomputeco/winter/pkg/vector/chroma"
	"github.com/papercomputeco/winter/pkg/vector/pgvector"
	"github.com/papercomputeco/winter/pkg/vector/qdrantvec"
	"github.com/papercomputeco/winter/pkg/vector/sqlitevec"
)

// NewVectorDriverOpts selects a vector backend. Target is interpreted per
// provider: a file path for sqlite, a URL for chroma, host:port for qdrant
// and a DSN for pgvector.
type NewVectorDriverOpts struct {
	ProviderType string
	Target       string
	Dimensions   uint
	Logger       *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.VectorDriver, error) {
	switch o.ProviderType {
	case "sqlite":
		return driver(sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger))
	case "chroma":
		return driver(chroma.NewDriver(chroma.Config{
			URL: o.Target,
		}, o.Logger))
	case "qdrant":
		host, port, err := splitHostPort(o.Target, qdrantvec.DefaultPort)
		if err != nil {
			return nil, err
		}
		return driver(qdrantvec.NewDriver(ctx, qdrantvec.Config{
			Host:       host,
			Port:       port,
			Dimensions: o.Dimensions,
		}, o.Logger))
	case "pgvector":
		return driver(pgvector.NewDriver(ctx, pgvector.Config{
			DSN:        o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger))
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

// splitHostPort accepts "host" or "host:port".
func splitHostPort(target string, defaultPort int) (string, int, error) {
	if target == "" {
		return "", 0, fmt.Errorf("vector store target is required")
	}
	if !strings.Contains(target, ":") {
		return target, defaultPort, nil
	}
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return "", 0, fmt.Errorf("invalid vector store target %q: %w", target, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", target, err)
	}
	return host, port, nil
}

// driver keeps a failed constructor from returning a non-nil interface
// holding a nil pointer.
func driver[T vector.VectorDriver](d T, err error) (vector.VectorDriver, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}
