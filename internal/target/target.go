// Package target classifies user-supplied target strings into typed descriptors.
//
// Classification precedence (first match wins):
//
//  1. filesystem path (existing directory, or path syntax: leading ".", "/", "~",
//     or a path separator without a URL scheme)  -> LocalCode
//  2. SSH remote, URL on a known code host, or anything ending in ".git" -> Repository
//  3. explicit http:// or https:// URL                                    -> WebApp
//  4. bare hostname                                                       -> Domain
//
// Filesystem existence is tested before any URL heuristic so that "./my-repo"
// or "build.d" never resolve as domain-like tokens.
package target

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind is the classified type of a target.
type Kind string

const (
	LocalCode  Kind = "local_code"
	Repository Kind = "repository"
	WebApp     Kind = "web_application"
	Domain     Kind = "domain"
)

// Keys stored in Descriptor.Details.
const (
	DetailPath       = "target_path"
	DetailRepo       = "target_repo"
	DetailURL        = "target_url"
	DetailClonedPath = "cloned_repo_path"
)

// Descriptor is a resolved target. WorkspaceSubdir is empty until
// workspace.Allocate runs; the descriptor is read-only after that.
type Descriptor struct {
	Raw             string            `json:"raw" yaml:"raw"`
	Kind            Kind              `json:"kind" yaml:"kind"`
	Details         map[string]string `json:"details" yaml:"details"`
	WorkspaceSubdir string            `json:"workspace_subdir" yaml:"workspace_subdir"`
}

// Display is the string shown to users: the absolute path for local code,
// the raw input otherwise.
func (d Descriptor) Display() string {
	if d.Kind == LocalCode {
		if p := d.Details[DetailPath]; p != "" {
			return p
		}
	}
	return d.Raw
}

// Clone returns a deep copy (Details is not shared).
func (d Descriptor) Clone() Descriptor {
	out := d
	out.Details = make(map[string]string, len(d.Details))
	for k, v := range d.Details {
		out.Details[k] = v
	}
	return out
}

// InvalidTargetError reports a string that cannot be classified or that fails
// the consistency checks for its kind.
type InvalidTargetError struct {
	Target string
	Reason string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Target, e.Reason)
}

// codeHosts maps known code-hosting domains to the number of leading path
// segments that name a repository (0 = the whole path).
var codeHosts = map[string]int{
	"github.com":    2,
	"gitlab.com":    0,
	"bitbucket.org": 2,
	"codeberg.org":  2,
	"dev.azure.com": 0,
}

var (
	sshRemote = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+:[^\s]+$`)
	hostLabel = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)
	portPart  = regexp.MustCompile(`^[0-9]{1,5}$`)
)

// Resolve classifies raw into a Descriptor.
func Resolve(raw string) (Descriptor, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Descriptor{}, &InvalidTargetError{Target: raw, Reason: "target is empty"}
	}

	if !hasScheme(s) && !sshRemote.MatchString(s) {
		if d, ok, err := resolveLocal(s); ok || err != nil {
			return d, err
		}
	}

	if cloneURL, ok := repositoryURL(s); ok {
		return newDescriptor(s, Repository, DetailRepo, cloneURL), nil
	}

	if hasHTTPScheme(s) {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return Descriptor{}, &InvalidTargetError{Target: s, Reason: "URL has no host"}
		}
		return newDescriptor(s, WebApp, DetailURL, s), nil
	}

	if hasScheme(s) {
		return Descriptor{}, &InvalidTargetError{Target: s, Reason: "only http:// and https:// URLs are supported"}
	}

	if isHostname(s) {
		return newDescriptor(s, Domain, DetailURL, "https://"+s), nil
	}

	return Descriptor{}, &InvalidTargetError{
		Target: s,
		Reason: "not a local directory, repository, URL, or domain name",
	}
}

// ResolveAll resolves every entry, stopping at the first failure.
func ResolveAll(raws []string) ([]Descriptor, error) {
	out := make([]Descriptor, 0, len(raws))
	for _, r := range raws {
		d, err := Resolve(r)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func newDescriptor(raw string, kind Kind, key, value string) Descriptor {
	return Descriptor{Raw: raw, Kind: kind, Details: map[string]string{key: value}}
}

// resolveLocal reports ok=true when s is a filesystem target. Existing
// non-directories and path-syntax strings that do not exist fail here, except
// those ending in ".git", which fall through to the repository rule.
func resolveLocal(s string) (Descriptor, bool, error) {
	p, err := expandHome(s)
	if err != nil {
		return Descriptor{}, false, &InvalidTargetError{Target: s, Reason: err.Error()}
	}

	info, statErr := os.Stat(p)
	if statErr == nil && info.IsDir() {
		abs, err := filepath.Abs(p)
		if err != nil {
			return Descriptor{}, false, &InvalidTargetError{Target: s, Reason: err.Error()}
		}
		return newDescriptor(s, LocalCode, DetailPath, abs), true, nil
	}

	if hasGitSuffix(s) {
		return Descriptor{}, false, nil
	}
	if statErr == nil {
		return Descriptor{}, false, &InvalidTargetError{Target: s, Reason: "path is not a directory"}
	}
	if !pathSyntax(s) {
		return Descriptor{}, false, nil
	}
	return Descriptor{}, false, &InvalidTargetError{Target: s, Reason: "local path does not exist"}
}

func pathSyntax(s string) bool {
	if s == "." || s == ".." {
		return true
	}
	if strings.HasPrefix(s, ".") || strings.HasPrefix(s, "/") || strings.HasPrefix(s, "~") {
		return true
	}
	return strings.ContainsAny(s, `/\`)
}

func expandHome(s string) (string, error) {
	if s != "~" && !strings.HasPrefix(s, "~/") && !strings.HasPrefix(s, `~\`) {
		return s, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, s[1:]), nil
}

// repositoryURL returns the canonical clone URL when s names a repository.
func repositoryURL(s string) (string, bool) {
	if sshRemote.MatchString(s) {
		return s, true
	}

	if hasHTTPScheme(s) {
		u, err := url.Parse(s)
		if err == nil && u.Host != "" {
			if clone, ok := codeHostClone(u); ok {
				return clone, true
			}
		}
	}

	if hasGitSuffix(s) {
		if hasScheme(s) {
			return s, true
		}
		parts := strings.SplitN(filepath.ToSlash(s), "/", 2)
		if len(parts) == 2 && isHostname(parts[0]) {
			return "https://" + s, true
		}
		return s, true
	}
	return "", false
}

func codeHostClone(u *url.URL) (string, bool) {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	n, known := codeHosts[host]
	if !known {
		return "", false
	}

	var segs []string
	for _, seg := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		if seg == "-" {
			break
		}
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	if n > 0 && len(segs) > n {
		segs = segs[:n]
	}
	if len(segs) < 2 {
		return "", false
	}
	last := len(segs) - 1
	segs[last] = strings.TrimSuffix(segs[last], ".git")

	hostPart := u.Host
	if strings.HasPrefix(strings.ToLower(hostPart), "www.") {
		hostPart = hostPart[4:]
	}
	return u.Scheme + "://" + hostPart + "/" + strings.Join(segs, "/") + ".git", true
}

func hasGitSuffix(s string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimRight(s, "/")), ".git")
}

func hasScheme(s string) bool {
	return strings.Contains(s, "://")
}

func hasHTTPScheme(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// isHostname accepts "host.tld" and "host.tld:port".
func isHostname(s string) bool {
	if strings.ContainsAny(s, `/\@ `) || !strings.Contains(s, ".") {
		return false
	}
	host := s
	if i := strings.LastIndex(s, ":"); i >= 0 {
		host = s[:i]
		if !portPart.MatchString(s[i+1:]) {
			return false
		}
	}
	host = strings.TrimSuffix(host, ".")
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if !hostLabel.MatchString(l) {
			return false
		}
	}
	return true
}
