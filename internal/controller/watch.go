package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/markusressel/fancurve/internal/persistence"
	"github.com/markusressel/fancurve/internal/ui"
)

// FollowCurveFiles applies changes to the default curve file until ctx is cancelled.
// changes is typically fed by a persistence.Watcher. Files matching the last default
// curve written by this controller are not reapplied.
func (c *Controller) FollowCurveFiles(ctx context.Context, changes <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-changes:
			if filepath.Base(path) != persistence.DefaultCurveFileName {
				ui.Debug("Ignoring change of curve file %s", path)
				continue
			}
			curve, err := persistence.LoadNamedCurve(path)
			if errors.Is(err, os.ErrNotExist) {
				ui.Debug("Default curve file %s was removed", path)
				continue
			}
			if err != nil {
				ui.Warning("Unable to reload default curve: %v", err)
				continue
			}
			if c.isWrittenDefault(curve) {
				ui.Debug("Ignoring own write of default curve '%s'", curve.Name())
				continue
			}
			ui.Info("Default curve file changed, reloading '%s'", curve.Name())
			c.NotifyCurveChanged(curve)
		}
	}
}
