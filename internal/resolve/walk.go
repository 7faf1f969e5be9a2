package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

var manifestExt = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// ResolveAllFiles expands a list of -f arguments - files, glob patterns,
// directories, and URLs - into a flat, sorted list of concrete file paths
// and URLs ready for ReadFileContent. Directories are expanded to their
// manifest files (.yaml/.yml/.json), recursing into sub-directories only
// when recursive is true.
func ResolveAllFiles(filenames []string, recursive bool) ([]string, error) {
	seen := map[string]bool{}
	var out []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, f := range filenames {
		if IsURL(f) {
			add(f)
			continue
		}

		matches, err := filepath.Glob(f)
		if err != nil {
			return nil, fmt.Errorf("resolving glob %q: %w", f, err)
		}
		if len(matches) == 0 {
			matches = []string{f}
		}

		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, fmt.Errorf("resolving %q: %w", m, err)
			}
			if !info.IsDir() {
				add(m)
				continue
			}
			if err := walkDir(m, recursive, add); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

func walkDir(dir string, recursive bool, add func(string)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %q: %w", dir, err)
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if recursive {
				if err := walkDir(path, recursive, add); err != nil {
					return err
				}
			}
			continue
		}
		if manifestExt[filepath.Ext(e.Name())] {
			add(path)
		}
	}
	return nil
}
