package cmd

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/go-drift/zoetrope/cmd/zoetrope/internal/config"
	"github.com/go-drift/zoetrope/pkg/animation"
	"github.com/go-drift/zoetrope/pkg/timeline"
)

func init() {
	RegisterCommand(&Command{
		Name:  "resolve",
		Short: "Print the resolved schedule of a timeline",
		Long: `Load a timeline document, resolve every delay and print where each
animation starts and ends.

Delays are resolved in document order:
  (none)   start when the previous animation ends
  N        start N milliseconds into the timeline
  ~        start together with the previous animation
  +N       start N milliseconds after the previous animation ends
  -N       start N milliseconds before the previous animation ends

Flags:
  --watch  Re-resolve whenever the file changes until interrupted`,
		Usage: "zoetrope resolve <file> [--watch]",
		Run:   runResolve,
	})
}

// watchDebounce is how long to wait after a change event before reading
// the file, so editors that truncate and then write are seen once.
const watchDebounce = 50 * time.Millisecond

func runResolve(ctx context.Context, args []string) error {
	var path string
	var watch bool
	for _, arg := range args {
		switch {
		case arg == "--watch":
			watch = true
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag %q", arg)
		case path == "":
			path = arg
		default:
			return fmt.Errorf("unexpected argument %q", arg)
		}
	}
	if path == "" {
		return fmt.Errorf("timeline file is required\n\nUsage: zoetrope resolve <file> [--watch]")
	}

	if !watch {
		return resolveFile(stdout, path)
	}

	w, err := newFileWatcher(path, watchDebounce, slog.Default())
	if err != nil {
		return err
	}
	defer w.Close()

	if err := resolveFile(stdout, path); err != nil {
		slog.Error("resolve failed", slog.String("path", path), slog.Any("error", err))
	}
	w.Run(ctx, func() {
		fmt.Fprintln(stdout)
		if err := resolveFile(stdout, path); err != nil {
			slog.Error("resolve failed", slog.String("path", path), slog.Any("error", err))
		}
	})
	return nil
}

func resolveFile(w io.Writer, path string) error {
	doc, err := config.Load(path)
	if err != nil {
		return err
	}
	// The scheduler is never stepped; it only satisfies the clocks.
	tl, _, err := doc.Build(animation.Options{Frames: animation.NewFrameScheduler()})
	if err != nil {
		return err
	}
	return printSchedule(w, doc, tl)
}

func printSchedule(w io.Writer, doc *config.Document, tl *timeline.Timeline) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDELAY\tSTART\tDURATION\tEND\tEASING")
	for i, slot := range tl.Schedule() {
		a := doc.Animations[i]
		delay := string(a.Delay)
		if delay == "" {
			delay = "-"
		}
		ease := a.Easing
		if ease.IsZero() {
			ease = doc.Defaults.Easing
		}
		name := ease.String()
		if name == "" {
			name = "default"
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\t%v\t%v\t%s\n", slot.Name, delay, slot.Delay, slot.Duration, slot.End, name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "runtime %v\n", tl.Runtime())
	return err
}

// fileWatcher reports content changes of a single file. The parent
// directory is watched so that editors replacing the file by rename are
// still seen.
type fileWatcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	sum      [sha1.Size]byte
	log      *slog.Logger
}

func newFileWatcher(path string, debounce time.Duration, log *slog.Logger) (*fileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	w := &fileWatcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		watcher:  watcher,
		log:      log.With(slog.String("component", "watcher")),
	}
	if b, err := os.ReadFile(path); err == nil {
		w.sum = sha1.Sum(b)
	}
	return w, nil
}

// Run calls changed after each settled change of the file's contents
// until ctx is done or the watcher is closed.
func (w *fileWatcher) Run(ctx context.Context, changed func()) {
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.log.LogAttrs(ctx, slog.LevelDebug, "change", slog.String("op", ev.Op.String()))
			settle = time.After(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.LogAttrs(ctx, slog.LevelError, "watch", slog.Any("error", err))
		case <-settle:
			settle = nil
			b, err := os.ReadFile(w.path)
			if err != nil {
				w.log.LogAttrs(ctx, slog.LevelError, "read file", slog.Any("error", err))
				continue
			}
			sum := sha1.Sum(b)
			if sum == w.sum {
				continue
			}
			w.sum = sum
			changed()
		}
	}
}

// Close stops watching.
func (w *fileWatcher) Close() error {
	return w.watcher.Close()
}
