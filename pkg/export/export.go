// Package export renders worst-case paths and policies as text.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/papercomputeco/worstcase/pkg/path"
	"github.com/papercomputeco/worstcase/pkg/policy"
)

// PathFileName returns the file name of a path export for the measured
// methods, e.g. "wcpath_insertsort.txt".
func PathFileName(methods []string) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = path.SimpleMethodName(m)
	}
	slices.Sort(names)
	return "wcpath_" + strings.Join(names, "") + ".txt"
}

// RenderPath writes p to w. When costs is non-nil it holds, per decision,
// the accumulated cost at the choice point and is printed alongside.
func RenderPath(w io.Writer, p *path.Path, costs []int64) error {
	if p == nil {
		_, err := io.WriteString(w, "no worst-case path\n")
		return err
	}

	if costs == nil {
		_, err := io.WriteString(w, p.String())
		return err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "cost: %s\n", p.State())
	fmt.Fprintf(&buf, "decisions: %d\n", p.Len())
	for i := range p.Len() {
		if i < len(costs) {
			fmt.Fprintf(&buf, "  %3d  %-32s cost=%d\n", i, p.At(i), costs[i])
		} else {
			fmt.Fprintf(&buf, "  %3d  %s\n", i, p.At(i))
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WritePath renders p into dir/PathFileName(methods), creating dir as
// needed, and returns the written file's path.
func WritePath(dir string, methods []string, p *path.Path, costs []int64) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	var buf bytes.Buffer
	if err := RenderPath(&buf, p, costs); err != nil {
		return "", err
	}

	target := filepath.Join(dir, PathFileName(methods))
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing path: %w", err)
	}
	return target, nil
}

// WritePolicy writes a human readable dump of p to w.
func WritePolicy(w io.Writer, p policy.Policy) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "kind: %s\n", p.Kind())
	fmt.Fprintf(&buf, "max history: %d\n", p.MaxHistorySize())

	if hp, ok := p.(*policy.HistoryPolicy); ok {
		digest, err := hp.Digest()
		if err != nil {
			return fmt.Errorf("digesting policy: %w", err)
		}
		fmt.Fprintf(&buf, "digest: %s\n", digest)
		buf.WriteString(hp.String())
	}

	_, err := w.Write(buf.Bytes())
	return err
}
