// Package workspace names per-target working directories inside a run and
// keeps the on-disk layout of that run (manifest, cloned repositories).
package workspace

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/mirzaaghazadeh/strix/internal/target"
)

const fallbackSlug = "target"

var unsafeChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// Allocate returns copies of targets, in the same order, with WorkspaceSubdir
// set. Duplicate slugs get "-2", "-3", ... in first-seen order; the result is
// a pure function of the input order.
func Allocate(targets []target.Descriptor) []target.Descriptor {
	out := make([]target.Descriptor, len(targets))
	used := make(map[string]bool, len(targets))
	for i, t := range targets {
		base := Slug(t)
		name := base
		for n := 2; used[name]; n++ {
			name = base + "-" + strconv.Itoa(n)
		}
		used[name] = true

		out[i] = t.Clone()
		out[i].WorkspaceSubdir = name
	}
	return out
}

// Slug derives the un-deduplicated directory name for one target.
func Slug(t target.Descriptor) string {
	var s string
	switch t.Kind {
	case target.LocalCode:
		s = filepath.Base(t.Details[target.DetailPath])
	case target.Repository:
		s = repoSlug(t.Details[target.DetailRepo])
	case target.WebApp, target.Domain:
		s = urlSlug(t.Details[target.DetailURL])
	}
	if s == "" {
		s = t.Raw
	}
	return sanitize(s)
}

func repoSlug(clone string) string {
	p := strings.TrimRight(clone, "/")
	if i := strings.LastIndexAny(p, "/:"); i >= 0 {
		p = p[i+1:]
	}
	return strings.TrimSuffix(p, ".git")
}

func urlSlug(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	parts := []string{u.Hostname()}
	if port := u.Port(); port != "" {
		parts = append(parts, port)
	}
	for _, seg := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "-")
}

func sanitize(s string) string {
	s = unsafeChars.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-.")
	if s == "" {
		return fallbackSlug
	}
	return s
}
