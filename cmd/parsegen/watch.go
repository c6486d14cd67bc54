package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchAndRegenerate re-runs regen whenever file or (if non-empty) the
// tree rooted at tmplDir changes, per generate's --watch flag
// (SPEC_FULL.md's domain-stack row for fsnotify: thin CLI glue around the
// already-specified generate verb, not new core semantics). It blocks
// until the process receives an interrupt.
func watchAndRegenerate(file, tmplDir string, regen func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(file)); err != nil {
		return fmt.Errorf("watching %s: %w", file, err)
	}
	if tmplDir != "" {
		if err := addTreeToWatcher(w, tmplDir); err != nil {
			return fmt.Errorf("watching %s: %w", tmplDir, err)
		}
	}

	fmt.Fprintf(os.Stderr, "watching %s for changes (ctrl-c to stop)\n", file)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Name != file && tmplDir == "" {
				continue
			}
			fmt.Fprintf(os.Stderr, "change detected: %s\n", ev.Name)
			if err := regen(); err != nil {
				fmt.Fprintf(os.Stderr, "regeneration failed: %v\n", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}

func addTreeToWatcher(w *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
