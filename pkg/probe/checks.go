package probe

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"seacatgo/pkg/db"
	"seacatgo/pkg/exporter"
)

var knownKeys = []string{
	exporter.KeyGenDate,
	exporter.KeyLowBatteryState,
	exporter.KeyEmergencyRendezvousPoint,
	exporter.KeyEmergencyEnd,
	exporter.KeyAutonomyArea,
	exporter.KeyExplorationArea,
	exporter.KeySafeAltitude,
	exporter.KeySystemPayload,
	exporter.KeySwapPayload,
	exporter.KeyBody,
}

// TemplateCheck fails when tpl has no ${Body} or uses names the exporter never fills.
func TemplateCheck(tpl string) CheckFunc {
	return func(ctx context.Context) error {
		keys := exporter.Placeholders(tpl)
		if !slices.Contains(keys, exporter.KeyBody) {
			return fmt.Errorf("template has no ${%s} placeholder", exporter.KeyBody)
		}
		for _, k := range keys {
			if !slices.Contains(knownKeys, k) {
				return fmt.Errorf("unknown placeholder ${%s}", k)
			}
		}
		return nil
	}
}

// TableCheck parses a replacement table file. An empty path passes, the
// built-in table is used then.
func TableCheck[T any](path string, parse func(io.Reader) (T, error)) CheckFunc {
	return func(ctx context.Context) error {
		if path == "" {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = parse(f)
		return err
	}
}

// WritableDirCheck creates dir if needed and verifies a file can be written there.
func WritableDirCheck(dir string) CheckFunc {
	return func(ctx context.Context) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return err
		}
		name := f.Name()
		f.Close()
		return os.Remove(name)
	}
}

// DBCheck pings the history database.
func DBCheck(d *db.DB) CheckFunc {
	return func(ctx context.Context) error {
		if d == nil {
			return fmt.Errorf("database not initialized")
		}
		return d.PingContext(ctx)
	}
}
