package authority

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the write bursts editors and atomic-rename
// tools produce into one reload.
const reloadDebounce = 500 * time.Millisecond

// Reloader watches a rules file and swaps new revisions into a Resolver.
type Reloader struct {
	watcher  *fsnotify.Watcher
	resolver *Resolver
	path     string
}

// NewReloader creates a file watcher for the rules path. The file must
// exist: watching a path that may appear later is not supported.
func NewReloader(resolver *Resolver, path string) (*Reloader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("authority: rules file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("authority: create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("authority: watch %q: %w", path, err)
	}

	return &Reloader{watcher: watcher, resolver: resolver, path: path}, nil
}

// Run watches for changes and reloads the rules. Blocks until ctx is
// cancelled. A revision that fails to load is skipped; the previous
// revision stays in force.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, r.reload)
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "authority: watcher error: %v\n", err)
		}
	}
}

func (r *Reloader) reload() {
	rules, err := Load(r.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "authority: reload failed, keeping previous rules: %v\n", err)
		return
	}
	r.resolver.Swap(rules)
	fmt.Fprintf(os.Stderr, "authority: rules reloaded (%s)\n", rules.Hash())
}
