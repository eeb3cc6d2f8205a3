package docker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/mirzaaghazadeh/strix/internal/logging"
)

// DefaultImage is the sandbox image used when STRIX_IMAGE is unset.
const DefaultImage = "ghcr.io/usestrix/strix-sandbox:0.1.10"

// Provisioner checks the engine and pulls the sandbox image on demand.
// Pull progress is written to Out, one line per summary change.
type Provisioner struct {
	Engine Engine
	Out    io.Writer
}

// CheckEngine pings the daemon.
func (p *Provisioner) CheckEngine(ctx context.Context) error {
	if err := p.Engine.Ping(ctx); err != nil {
		return &EngineUnavailableError{Err: err}
	}
	return nil
}

// EnsureImage returns at once when name is already present locally;
// otherwise it pulls it and reports collapsed progress.
func (p *Provisioner) EnsureImage(ctx context.Context, name string) error {
	log := logging.New("docker")

	ok, err := p.Engine.ImageExists(ctx, name)
	if err != nil {
		return &EngineUnavailableError{Err: fmt.Errorf("inspect image %s: %w", name, err)}
	}
	if ok {
		log.Debug("image present", "image", name)
		return nil
	}

	out := p.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprintf(out, "\n🐳 Pulling Docker image: %s\n", name)
	fmt.Fprintln(out, "This only happens on first run and may take a few minutes...")
	fmt.Fprintln(out)

	stream, err := p.Engine.PullImage(ctx, name)
	if err != nil {
		return &ImagePullError{Image: name, Err: err}
	}
	defer stream.Close()

	prog := NewProgress()
	dec := json.NewDecoder(stream)
	frames := 0
	for {
		var m jsonmessage.JSONMessage
		if err := dec.Decode(&m); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return &ImagePullError{Image: name, Err: fmt.Errorf("decode pull stream: %w", err)}
		}
		frames++
		if m.Error != nil {
			return &ImagePullError{Image: name, Err: m.Error}
		}
		if summary, changed := prog.Observe(m); changed {
			fmt.Fprintln(out, summary)
		}
	}

	log.Info("image pulled", "image", name, "layers", prog.Layers(), "frames", frames)
	fmt.Fprintln(out, "✅ Successfully pulled Docker image")
	fmt.Fprintln(out)
	return nil
}
