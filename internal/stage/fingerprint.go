package stage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/fsutil"
)

// fingerprints maps an input path, relative to the stage base directory, to
// the hex SHA-256 of its content.
type fingerprints map[string]string

func (s *Stage) fingerprint() (fingerprints, error) {
	files, err := fsutil.ExpandGlobs(s.baseDir, s.cfg.Inputs)
	if err != nil {
		return nil, err
	}
	out := make(fingerprints, len(files))
	for _, f := range files {
		sum, err := hashFile(f)
		if err != nil {
			return nil, err
		}
		out[s.rel(f)] = sum
	}
	return out, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Stage) rel(path string) string {
	if r, err := filepath.Rel(s.baseDir, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}

// diff lists, in a stable order, how cur differs from prev.
func diff(prev, cur fingerprints) []string {
	var added, changed, removed []string
	for p, sum := range cur {
		old, ok := prev[p]
		switch {
		case !ok:
			added = append(added, p)
		case old != sum:
			changed = append(changed, p)
		}
	}
	for p := range prev {
		if _, ok := cur[p]; !ok {
			removed = append(removed, p)
		}
	}
	sort.Strings(added)
	sort.Strings(changed)
	sort.Strings(removed)

	var reasons []string
	for _, p := range added {
		reasons = append(reasons, "new input "+p)
	}
	for _, p := range changed {
		reasons = append(reasons, "input changed: "+p)
	}
	for _, p := range removed {
		reasons = append(reasons, "input removed: "+p)
	}
	return reasons
}

func (fp fingerprints) toState() map[string]any {
	out := make(map[string]any, len(fp))
	for k, v := range fp {
		out[k] = v
	}
	return out
}
