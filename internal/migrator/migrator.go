// Package migrator optionally moves elected canonical skill packages to
// their scope's preferred root, replacing vacated lower-priority locations
// with symlinks to the new canonical (spec §4.4). It is only invoked when
// the user preference "auto-migrate to canonical source" is set.
package migrator

import (
	"fmt"
	"os"
	"path/filepath"

	"skillssync/internal/model"
	"skillssync/internal/resolver"
	"skillssync/internal/skillserrors"
	"skillssync/internal/telemetry"
)

var log = telemetry.Get(telemetry.ComponentMigrator)

// Migrate runs the four-step migration for every elected package whose
// canonical path is not already under preferredRoot, skipping any key that
// appears in conflictedKeys. It mutates elected in place: on a successful
// migration, Winner.CanonicalPath is updated to the new destination and the
// other candidates in All that still exist are rewritten to reflect that
// they are now symlinks.
func Migrate(elected map[string]resolver.Elected, conflictedKeys map[string]struct{}, preferredRoot string) ([]skillserrors.MigrationFailedError, error) {
	var failures []skillserrors.MigrationFailedError

	for key, e := range elected {
		if _, conflicted := conflictedKeys[key]; conflicted {
			continue
		}

		dest := filepath.Join(preferredRoot, key)
		current, err := filepath.EvalSymlinks(e.Winner.CanonicalPath)
		if err != nil {
			current = e.Winner.CanonicalPath
		}
		resolvedDest, err := filepath.EvalSymlinks(dest)
		if err != nil {
			resolvedDest = dest
		}
		if current == resolvedDest {
			continue // already at the preferred root
		}

		if err := migrateOne(e.Winner.CanonicalPath, dest); err != nil {
			failures = append(failures, skillserrors.MigrationFailedError{Key: key, Reason: err.Error()})
			log.Warn("migrate %s: %v", key, err)
			continue
		}
		if err := os.Symlink(dest, e.Winner.CanonicalPath); err != nil {
			log.Warn("migrate %s: symlink vacated location %s: %v", key, e.Winner.CanonicalPath, err)
		}

		updated := e.Winner
		updated.CanonicalPath = dest
		newAll := make([]model.Candidate, 0, len(e.All))
		for _, c := range e.All {
			if c.CanonicalPath == e.Winner.CanonicalPath {
				newAll = append(newAll, updated)
				continue
			}
			if _, err := os.Lstat(c.CanonicalPath); err == nil {
				if err := os.RemoveAll(c.CanonicalPath); err != nil {
					log.Warn("migrate %s: remove stale location %s: %v", key, c.CanonicalPath, err)
					newAll = append(newAll, c)
					continue
				}
				if err := os.MkdirAll(filepath.Dir(c.CanonicalPath), 0o755); err != nil {
					log.Warn("migrate %s: ensure parent for %s: %v", key, c.CanonicalPath, err)
					newAll = append(newAll, c)
					continue
				}
				if err := os.Symlink(dest, c.CanonicalPath); err != nil {
					log.Warn("migrate %s: symlink %s: %v", key, c.CanonicalPath, err)
					newAll = append(newAll, c)
					continue
				}
				// c.CanonicalPath is unchanged lexically; it is now a symlink to dest.
			}
			newAll = append(newAll, c)
		}

		elected[key] = resolver.Elected{Winner: updated, All: newAll}
	}

	return failures, nil
}

// migrateOne performs steps 1-3 of spec §4.4 for a single package.
func migrateOne(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("ensure destination parent: %w", err)
	}

	if info, err := os.Lstat(dest); err == nil {
		if info.Mode()&os.ModeSymlink != 0 || info.IsDir() {
			if err := os.RemoveAll(dest); err != nil {
				return fmt.Errorf("remove existing destination: %w", err)
			}
		} else {
			return fmt.Errorf("destination %s exists and is not a symlink or directory", dest)
		}
	}

	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", src, dest, err)
	}
	return nil
}
