package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// dirFrame is a pending directory on the search stack. rel is the
// slash-separated path relative to the search root.
type dirFrame struct {
	abs string
	rel string
}

// FindInstallRoot searches the subdirectories of searchRoot depth-first and
// returns the first directory whose path (relative to searchRoot) contains
// marker. Siblings are visited in os.ReadDir order; the first match in
// pre-order wins even when a shallower match exists further along.
//
// Symlinked directories are not followed. Unreadable directories are dead
// ends. Returns ErrInstallRootNotFound when nothing matches.
func FindInstallRoot(searchRoot, marker string) (string, error) {
	if marker == "" {
		return "", errors.New("bootstrap: empty install marker")
	}
	marker = filepath.ToSlash(marker)

	children, err := subdirs(dirFrame{abs: searchRoot})
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrInstallRootNotFound, searchRoot, err)
	}

	stack := make([]dirFrame, 0, len(children))
	stack = pushReversed(stack, children)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if strings.Contains(top.rel, marker) {
			return top.abs, nil
		}

		kids, err := subdirs(top)
		if err != nil {
			continue
		}
		stack = pushReversed(stack, kids)
	}
	return "", fmt.Errorf("%w: no directory matching %q under %s", ErrInstallRootNotFound, marker, searchRoot)
}

// subdirs lists the immediate subdirectories of parent in ReadDir order.
func subdirs(parent dirFrame) ([]dirFrame, error) {
	entries, err := os.ReadDir(parent.abs)
	if err != nil {
		return nil, err
	}
	var dirs []dirFrame
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dirs = append(dirs, dirFrame{
			abs: filepath.Join(parent.abs, entry.Name()),
			rel: path.Join(parent.rel, entry.Name()),
		})
	}
	return dirs, nil
}

// pushReversed pushes frames so that frames[0] ends up on top of the stack.
func pushReversed(stack, frames []dirFrame) []dirFrame {
	for i := len(frames) - 1; i >= 0; i-- {
		stack = append(stack, frames[i])
	}
	return stack
}
