package docker

import (
	"fmt"
	"strings"

	"github.com/docker/docker/pkg/jsonmessage"
)

// Progress folds a pull's frame stream into one summary line. It keeps the
// latest status per layer id.
type Progress struct {
	layers    map[string]string
	done      int
	announced bool
	emitted   bool
}

func NewProgress() *Progress {
	return &Progress{layers: make(map[string]string)}
}

// Observe records one frame. The engine lists every layer before it starts
// transferring, so nothing is reported until the first frame past that
// listing; the layer total is final by then. After that, changed is true only
// when the number of completed layers moves.
func (p *Progress) Observe(m jsonmessage.JSONMessage) (summary string, changed bool) {
	if isLayerFrame(m) {
		p.layers[m.ID] = m.Status
		if !p.announced && listingStatus(m.Status) {
			return p.Summary(), false
		}
	} else if len(p.layers) == 0 {
		return p.Summary(), false
	}
	p.announced = true

	done := p.completed()
	if p.emitted && done == p.done {
		return p.Summary(), false
	}
	p.done = done
	p.emitted = true
	return p.Summary(), true
}

// Summary renders the current state, e.g. "Downloading image layers: 2/5 complete".
func (p *Progress) Summary() string {
	return fmt.Sprintf("Downloading image layers: %d/%d complete", p.completed(), len(p.layers))
}

// Layers returns the number of distinct layers seen so far.
func (p *Progress) Layers() int { return len(p.layers) }

func (p *Progress) completed() int {
	n := 0
	for _, s := range p.layers {
		if layerDone(s) {
			n++
		}
	}
	return n
}

// listingStatus reports the statuses the engine uses while enumerating layers.
func listingStatus(status string) bool {
	return status == "Pulling fs layer" || status == "Already exists"
}

func layerDone(status string) bool {
	return status == "Pull complete" || status == "Already exists"
}

// The opening "Pulling from <repo>" frame carries the tag in ID; digest and
// final status frames carry no ID at all.
func isLayerFrame(m jsonmessage.JSONMessage) bool {
	return m.ID != "" && !strings.HasPrefix(m.Status, "Pulling from")
}
