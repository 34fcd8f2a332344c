package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SafeRead reads a file only if it resolves inside rootDir and is not a
// symbolic link. All skill file reads go through this: the markdown body at
// execution time and every resource file.
func SafeRead(rootDir, path string) ([]byte, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return nil, fmt.Errorf("refusing read outside skill root: %s", path)
	}

	fi, err := os.Lstat(target)
	if err != nil {
		return nil, err
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("refusing symlink: %s", path)
	}

	return os.ReadFile(target)
}
