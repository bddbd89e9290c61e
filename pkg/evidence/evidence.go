// Package evidence loads the text that strategies are evaluated against.
package evidence

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/user/e8audit/pkg/log"
)

// Stdin is the path argument that reads from standard input.
const Stdin = "-"

// Document is a piece of evidence text with the label findings will cite
type Document struct {
	Label string
	Text  string
}

// Load reads a single file, or stdin for "-".
func Load(path string, stdin io.Reader) (Document, error) {
	if path == Stdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return Document{}, fmt.Errorf("read stdin: %w", err)
		}
		return Document{Label: "stdin", Text: string(data)}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Document{Label: path, Text: string(data)}, nil
}

// LoadAll loads every path. Directories are walked for regular files and
// their contents returned in lexical order.
func LoadAll(paths []string, stdin io.Reader) ([]Document, error) {
	var docs []Document
	for _, p := range paths {
		if p == Stdin {
			d, err := Load(p, stdin)
			if err != nil {
				return nil, err
			}
			docs = append(docs, d)
			continue
		}

		files, err := expand(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			d, err := Load(f, stdin)
			if err != nil {
				return nil, err
			}
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func expand(path string) ([]string, error) {
	files, _, err := walk(path)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// walk lists the regular files and directories under path, skipping dot
// directories below it. A file path comes back as its only file.
func walk(path string) (files, dirs []string, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil, nil
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && hidden(d.Name()) {
				return filepath.SkipDir
			}
			dirs = append(dirs, p)
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", path, err)
	}
	return files, dirs, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// settleDelay is how long watched paths must go without events before Watch
// reloads them. A save that truncates and then writes arrives as one reload.
const settleDelay = 100 * time.Millisecond

// Watch calls fn with the new contents of any watched file that is written
// or created. Directories are watched recursively, including directories
// created after Watch starts. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, paths []string, fn func(Document)) error {
	logger := log.WithContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Error("close watcher", "err", err)
		}
	}()

	for _, p := range paths {
		files, dirs, err := walk(p)
		if err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		if len(dirs) == 0 {
			dirs = files
		}
		for _, d := range dirs {
			if err := watcher.Add(d); err != nil {
				return fmt.Errorf("watch %s: %w", d, err)
			}
		}
		logger.Debug("added file watchers", "path", p, "count", len(dirs))
	}

	pending := make(map[string]struct{})
	settle := time.NewTimer(settleDelay)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
				continue
			}

			info, err := os.Stat(evt.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if !evt.Has(fsnotify.Create) || hidden(filepath.Base(evt.Name)) {
					continue
				}
				// Files may land in a new directory before it is watched.
				files, dirs, err := walk(evt.Name)
				if err != nil {
					logger.Warn("watch new directory", "path", evt.Name, "err", err)
					continue
				}
				for _, d := range dirs {
					if err := watcher.Add(d); err != nil {
						logger.Warn("watch new directory", "path", d, "err", err)
					}
				}
				for _, f := range files {
					pending[f] = struct{}{}
				}
			} else if info.Mode().IsRegular() {
				pending[evt.Name] = struct{}{}
			}
			if len(pending) > 0 {
				settle.Reset(settleDelay)
			}

		case <-settle.C:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			clear(pending)
			sort.Strings(names)

			for _, name := range names {
				doc, err := Load(name, nil)
				if err != nil {
					logger.Warn("reload evidence", "path", name, "err", err)
					continue
				}
				fn(doc)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch evidence", "err", err)
		}
	}
}
