package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/google/go-cmp/cmp"
)

type fakeEngine struct {
	pingErr   error
	exists    bool
	existsErr error
	stream    string
	pullErr   error

	pulls int
}

func (f *fakeEngine) Ping(context.Context) error { return f.pingErr }

func (f *fakeEngine) ImageExists(context.Context, string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeEngine) PullImage(context.Context, string) (io.ReadCloser, error) {
	f.pulls++
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	return io.NopCloser(strings.NewReader(f.stream)), nil
}

func frames(t *testing.T, ms ...jsonmessage.JSONMessage) string {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, m := range ms {
		if err := enc.Encode(m); err != nil {
			t.Fatal(err)
		}
	}
	return buf.String()
}

func frame(id, status string) jsonmessage.JSONMessage {
	return jsonmessage.JSONMessage{ID: id, Status: status}
}

// pullStream announces three layers, then interleaves many repeated
// progress frames before each layer completes.
func pullStream() []jsonmessage.JSONMessage {
	ms := []jsonmessage.JSONMessage{
		frame("0.1.10", "Pulling from usestrix/strix-sandbox"),
		frame("aaa", "Pulling fs layer"),
		frame("bbb", "Pulling fs layer"),
		frame("ccc", "Already exists"),
	}
	for i := 0; i < 50; i++ {
		ms = append(ms, jsonmessage.JSONMessage{
			ID: "aaa", Status: "Downloading",
			Progress: &jsonmessage.JSONProgress{Current: int64(i * 1000), Total: 50000},
		})
		ms = append(ms, frame("bbb", "Waiting"))
	}
	ms = append(ms,
		frame("aaa", "Extracting"),
		frame("aaa", "Extracting"),
		frame("aaa", "Pull complete"),
		frame("aaa", "Pull complete"),
		frame("bbb", "Downloading"),
		frame("bbb", "Pull complete"),
		jsonmessage.JSONMessage{Status: "Digest: sha256:abc"},
		jsonmessage.JSONMessage{Status: "Status: Downloaded newer image for ghcr.io/usestrix/strix-sandbox:0.1.10"},
	)
	return ms
}

func TestProgress_EmitsOncePerCompletionCount(t *testing.T) {
	p := NewProgress()
	var updates []string
	for _, m := range pullStream() {
		if s, changed := p.Observe(m); changed {
			updates = append(updates, s)
		}
	}
	want := []string{
		"Downloading image layers: 1/3 complete",
		"Downloading image layers: 2/3 complete",
		"Downloading image layers: 3/3 complete",
	}
	if diff := cmp.Diff(want, updates); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%s", diff)
	}
	if p.Layers() != 3 {
		t.Errorf("Layers() = %d, want 3", p.Layers())
	}
}

func TestProgress_FirstUpdateCountsEveryListedLayer(t *testing.T) {
	cases := []struct {
		name   string
		stream []jsonmessage.JSONMessage
		want   []string
	}{
		{
			name: "cache hit listed first",
			stream: []jsonmessage.JSONMessage{
				frame("1.0", "Pulling from acme/tool"),
				frame("aaa", "Already exists"),
				frame("bbb", "Pulling fs layer"),
				frame("ccc", "Pulling fs layer"),
				frame("bbb", "Waiting"),
				frame("bbb", "Pull complete"),
				frame("ccc", "Pull complete"),
			},
			want: []string{
				"Downloading image layers: 1/3 complete",
				"Downloading image layers: 2/3 complete",
				"Downloading image layers: 3/3 complete",
			},
		},
		{
			name: "every layer cached",
			stream: []jsonmessage.JSONMessage{
				frame("1.0", "Pulling from acme/tool"),
				frame("aaa", "Already exists"),
				frame("bbb", "Already exists"),
				{Status: "Digest: sha256:abc"},
				{Status: "Status: Downloaded newer image for acme/tool:1.0"},
			},
			want: []string{"Downloading image layers: 2/2 complete"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProgress()
			var updates []string
			for _, m := range tc.stream {
				if s, changed := p.Observe(m); changed {
					updates = append(updates, s)
				}
			}
			if diff := cmp.Diff(tc.want, updates); diff != "" {
				t.Errorf("updates mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProgress_IgnoresNonLayerFrames(t *testing.T) {
	p := NewProgress()
	for _, m := range []jsonmessage.JSONMessage{
		frame("latest", "Pulling from library/alpine"),
		{Status: "Digest: sha256:abc"},
	} {
		if _, changed := p.Observe(m); changed {
			t.Errorf("frame %+v produced an update", m)
		}
	}
	if p.Layers() != 0 {
		t.Errorf("Layers() = %d, want 0", p.Layers())
	}
}

func TestEnsureImage_PresentSkipsPull(t *testing.T) {
	eng := &fakeEngine{exists: true}
	var out bytes.Buffer
	p := &Provisioner{Engine: eng, Out: &out}
	if err := p.EnsureImage(context.Background(), DefaultImage); err != nil {
		t.Fatalf("EnsureImage: %v", err)
	}
	if eng.pulls != 0 {
		t.Errorf("pulled %d times, want 0", eng.pulls)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestEnsureImage_PullCollapsesProgress(t *testing.T) {
	eng := &fakeEngine{stream: frames(t, pullStream()...)}
	var out bytes.Buffer
	p := &Provisioner{Engine: eng, Out: &out}
	if err := p.EnsureImage(context.Background(), DefaultImage); err != nil {
		t.Fatalf("EnsureImage: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "Pulling Docker image: "+DefaultImage) {
		t.Errorf("missing banner:\n%s", text)
	}
	if !strings.Contains(text, "first run") {
		t.Errorf("missing first-run notice:\n%s", text)
	}
	if n := strings.Count(text, "Downloading image layers:"); n != 3 {
		t.Errorf("got %d summary lines, want 3:\n%s", n, text)
	}
	if !strings.Contains(text, "Successfully pulled") {
		t.Errorf("missing success line:\n%s", text)
	}
}

func TestEnsureImage_Errors(t *testing.T) {
	cases := []struct {
		name       string
		eng        *fakeEngine
		wantPull   bool
		wantEngine bool
		contains   string
	}{
		{
			name:     "stream error frame",
			eng:      &fakeEngine{stream: frames(t, frame("aaa", "Pulling fs layer"), jsonmessage.JSONMessage{Error: &jsonmessage.JSONError{Message: "manifest unknown"}})},
			wantPull: true, contains: "manifest unknown",
		},
		{
			name:     "pull request fails",
			eng:      &fakeEngine{pullErr: errors.New("denied: requested access to the resource is denied")},
			wantPull: true, contains: "denied",
		},
		{
			name:     "garbage stream",
			eng:      &fakeEngine{stream: "{not json"},
			wantPull: true, contains: "decode pull stream",
		},
		{
			name:       "inspect fails",
			eng:        &fakeEngine{existsErr: errors.New("connection refused")},
			wantEngine: true, contains: "connection refused",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Provisioner{Engine: tc.eng}
			err := p.EnsureImage(context.Background(), "img:1")
			var pe *ImagePullError
			var ee *EngineUnavailableError
			if got := errors.As(err, &pe); got != tc.wantPull {
				t.Errorf("ImagePullError = %v, want %v (err %v)", got, tc.wantPull, err)
			}
			if got := errors.As(err, &ee); got != tc.wantEngine {
				t.Errorf("EngineUnavailableError = %v, want %v (err %v)", got, tc.wantEngine, err)
			}
			if err == nil || !strings.Contains(err.Error(), tc.contains) {
				t.Errorf("err = %v, want it to contain %q", err, tc.contains)
			}
		})
	}
}

func TestCheckEngine(t *testing.T) {
	p := &Provisioner{Engine: &fakeEngine{pingErr: errors.New("Cannot connect to the Docker daemon")}}
	var ee *EngineUnavailableError
	if err := p.CheckEngine(context.Background()); !errors.As(err, &ee) {
		t.Fatalf("err = %v, want EngineUnavailableError", err)
	}
	p.Engine = &fakeEngine{}
	if err := p.CheckEngine(context.Background()); err != nil {
		t.Errorf("CheckEngine: %v", err)
	}
}

func TestCheckInstalled(t *testing.T) {
	missing := func(string) (string, error) { return "", errors.New("not found") }
	found := func(string) (string, error) { return "/usr/bin/docker", nil }
	env := func(v string) func(string) string {
		return func(k string) string {
			if k == "DOCKER_HOST" {
				return v
			}
			return ""
		}
	}

	if err := CheckInstalled(found, env("")); err != nil {
		t.Errorf("docker on PATH: %v", err)
	}
	if err := CheckInstalled(missing, env("tcp://10.0.0.5:2375")); err != nil {
		t.Errorf("DOCKER_HOST set: %v", err)
	}
	var ee *EngineUnavailableError
	if err := CheckInstalled(missing, env("")); !errors.As(err, &ee) {
		t.Errorf("err = %v, want EngineUnavailableError", err)
	}
}
