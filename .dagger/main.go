// wca CI/CD
//
// Package main provides reproducible builds, tests and checks for wca,
// locally and in GitHub actions.
package main

import (
	"context"

	"dagger/worstcase/internal/dagger"
)

// Worstcase is the CI/CD module for wca
type Worstcase struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new wca CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".wca", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Worstcase {
	return &Worstcase{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm Go container for the given platform
// with gcc, libsqlite3-dev and CGO enabled, and the project source mounted.
// go-sqlite3 needs CGO, so tests, builds and linting all start here.
func (w *Worstcase) goContainer(platform dagger.Platform) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{Platform: platform}).
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod-"+string(platform))).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build-"+string(platform))).
		WithWorkdir("/src").
		WithDirectory("/src", w.Source)
}

// Test runs the wca unit tests via "go test"
func (w *Worstcase) Test(ctx context.Context) (string, error) {
	return w.goContainer("").
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}
