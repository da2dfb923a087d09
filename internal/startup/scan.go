// Package startup handles the one-time sweep of files already sitting in
// the watched directory when the daemon starts.
package startup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rfields/scanwatch/constants"
)

// Scan lists files in root that look unprocessed: allowed extension and a
// name not already matching a produced naming template. Non-recursive;
// results are sorted for a stable prompt.
func Scan(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read watch directory: %w", err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := constants.NormalizeExt(filepath.Ext(name))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			continue
		}
		if constants.IsProcessedName(name) {
			continue
		}
		out = append(out, filepath.Join(root, name))
	}
	sort.Strings(out)
	return out, nil
}

// ParseSelection interprets the operator's reply to the startup prompt:
// "all" takes every candidate, "skip" or an empty line takes none, and a
// comma-separated list of 1-based indices takes those entries.
func ParseSelection(input string, n int) ([]int, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	switch s {
	case "", "skip":
		return nil, nil
	case "all":
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}

	seen := make(map[int]struct{})
	var idx []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", part)
		}
		if v < 1 || v > n {
			return nil, fmt.Errorf("index %d out of range 1..%d", v, n)
		}
		if _, dup := seen[v-1]; dup {
			continue
		}
		seen[v-1] = struct{}{}
		idx = append(idx, v-1)
	}
	sort.Ints(idx)
	return idx, nil
}

// Prompt shows the candidates on w and reads one selection line from r.
// Returns the chosen paths. An unparseable reply re-prompts until r is
// exhausted, at which point nothing is selected.
func Prompt(w io.Writer, r io.Reader, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	fmt.Fprintf(w, "Found %d unprocessed file(s):\n", len(candidates))
	for i, p := range candidates {
		fmt.Fprintf(w, "  %d. %s\n", i+1, filepath.Base(p))
	}
	fmt.Fprint(w, "Process which? (all / skip / comma-separated numbers): ")

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		idx, err := ParseSelection(scanner.Text(), len(candidates))
		if err != nil {
			fmt.Fprintf(w, "%v, try again: ", err)
			continue
		}
		out := make([]string, 0, len(idx))
		for _, i := range idx {
			out = append(out, candidates[i])
		}
		return out, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

// SelectAll returns every candidate, for non-interactive startup.
func SelectAll(candidates []string) []string {
	return candidates
}
