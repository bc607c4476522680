// scanner walks a project directory for source files.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("volar.scanner")

// IgnoreDir reports whether a directory is never descended into: hidden
// directories and installed dependencies.
func IgnoreDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

// Scan walks the entire subtree under root. Directories accepted by
// IgnoreDir are skipped entirely. For each remaining file, skip() is
// applied, and if that returns false the file is read and
// callback(path, contents) invoked. Scan only returns once all callbacks
// have completed; it stops early, returning ctx.Err(), when ctx is done.
func Scan(
	ctx context.Context,
	root string,
	skip func(path string, info fs.FileInfo) bool,
	callback func(path string, document []byte),
) error {
	fileCh := make(chan string, 100)
	var wg sync.WaitGroup

	// worker goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		for path := range fileCh {
			if ctx.Err() != nil {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				log.Warningf("Read error for %s: %v", path, err)
				continue
			}
			callback(path, data)
		}
	}()

	log.Debugf("Starting walk at %q", root)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			log.Debugf("Walk error: %v", err)
			return nil
		}

		if d.IsDir() {
			if path != root && IgnoreDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if skip != nil && skip(path, info) {
			return nil
		}

		fileCh <- path
		return nil
	})

	// no more files to send
	close(fileCh)
	// wait for the worker to finish consuming and calling back
	wg.Wait()

	if err != nil {
		return err
	}
	return ctx.Err()
}
