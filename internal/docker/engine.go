// Package docker makes sure the sandbox image is available on the local
// container engine before a scan starts.
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// Engine is the slice of the container engine API the provisioner needs.
type Engine interface {
	Ping(ctx context.Context) error
	ImageExists(ctx context.Context, name string) (bool, error)
	// PullImage returns the engine's newline-delimited JSON progress stream.
	PullImage(ctx context.Context, name string) (io.ReadCloser, error)
}

// SDKEngine talks to the daemon through the Docker Engine API client.
type SDKEngine struct {
	cli *client.Client
}

// NewEngine builds a client from DOCKER_HOST, DOCKER_TLS_VERIFY and friends,
// negotiating the API version on first use. It does not contact the daemon.
func NewEngine() (*SDKEngine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &SDKEngine{cli: cli}, nil
}

func (e *SDKEngine) Ping(ctx context.Context) error {
	_, err := e.cli.Ping(ctx)
	return err
}

func (e *SDKEngine) ImageExists(ctx context.Context, name string) (bool, error) {
	_, _, err := e.cli.ImageInspectWithRaw(ctx, name)
	if err == nil {
		return true, nil
	}
	if client.IsErrNotFound(err) {
		return false, nil
	}
	return false, err
}

func (e *SDKEngine) PullImage(ctx context.Context, name string) (io.ReadCloser, error) {
	return e.cli.ImagePull(ctx, name, image.PullOptions{})
}

func (e *SDKEngine) Close() error {
	return e.cli.Close()
}

var errNotInstalled = errors.New("the 'docker' CLI was not found in your PATH and DOCKER_HOST is not set")

// CheckInstalled reports whether a container engine is configured on this
// machine without contacting it: either DOCKER_HOST is set or a docker
// executable is on PATH.
func CheckInstalled(lookPath func(string) (string, error), getenv func(string) string) error {
	if getenv("DOCKER_HOST") != "" {
		return nil
	}
	if _, err := lookPath("docker"); err != nil {
		return &EngineUnavailableError{Err: errNotInstalled}
	}
	return nil
}

// EngineUnavailableError means the container engine is missing or unreachable.
type EngineUnavailableError struct {
	Err error
}

func (e *EngineUnavailableError) Error() string {
	return fmt.Sprintf("container engine unavailable: %v", e.Err)
}

func (e *EngineUnavailableError) Unwrap() error { return e.Err }

// ImagePullError means the engine was reachable but the image could not be
// retrieved.
type ImagePullError struct {
	Image string
	Err   error
}

func (e *ImagePullError) Error() string {
	return fmt.Sprintf("pull image %s: %v", e.Image, e.Err)
}

func (e *ImagePullError) Unwrap() error { return e.Err }
