package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/worstcase/internal/dagger"
)

// Build and return a directory of wca binaries, one per linux architecture
func (w *Worstcase) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	outputs := dag.Directory()

	for _, goarch := range []string{"amd64", "arm64"} {
		dir := fmt.Sprintf("linux/%s/", goarch)

		build := w.goContainer(dagger.Platform("linux/" + goarch)).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", dir, "./cli/wca"})

		outputs = outputs.WithDirectory(dir, build.Directory(dir))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (w *Worstcase) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/worstcase/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/worstcase/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/worstcase/pkg/utils.Buildtime=%s'", time.Now().UTC().Format(time.RFC3339)),
	}

	return w.Build(ctx, strings.Join(ldflags, " "))
}
