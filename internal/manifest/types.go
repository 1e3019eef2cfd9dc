package manifest

import (
	"fmt"

	"github.com/stuttgart-things/repofleet/internal/labels"
)

// Ref points at a manifest file from the config
type Ref struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Path     string `json:"path" yaml:"path" toml:"path"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty" toml:"disabled"`
}

// Hosting is the convention used to derive repository URLs from a name.
type Hosting struct {
	Host  string `json:"host,omitempty" yaml:"host,omitempty" toml:"host"`
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty" toml:"owner"`
}

// DefaultHosting is used for any Hosting field left empty
var DefaultHosting = Hosting{Host: "github.com", Owner: "joyent"}

func (h Hosting) withDefaults() Hosting {
	if h.Host == "" {
		h.Host = DefaultHosting.Host
	}
	if h.Owner == "" {
		h.Owner = DefaultHosting.Owner
	}
	return h
}

// HTMLURL returns the web URL of the named repository
func (h Hosting) HTMLURL(name string) string {
	h = h.withDefaults()
	return fmt.Sprintf("https://%s/%s/%s", h.Host, h.Owner, name)
}

// SSHCloneURL returns the SSH clone URL of the named repository
func (h Hosting) SSHCloneURL(name string) string {
	h = h.withDefaults()
	return fmt.Sprintf("git@%s:%s/%s.git", h.Host, h.Owner, name)
}

// HTTPSCloneURL returns the HTTPS clone URL of the named repository
func (h Hosting) HTTPSCloneURL(name string) string {
	h = h.withDefaults()
	return fmt.Sprintf("https://%s/%s/%s.git", h.Host, h.Owner, name)
}

// Repository is one entry of the merged repository set. The URL fields are
// derived from Name when the repository is loaded and never change after.
type Repository struct {
	Name          string     `json:"name"`
	Labels        labels.Set `json:"labels"`
	Tags          []string   `json:"tags,omitempty"`
	Manifests     []string   `json:"manifests"`
	HTMLURL       string     `json:"htmlUrl"`
	SSHCloneURL   string     `json:"sshCloneUrl"`
	HTTPSCloneURL string     `json:"httpsCloneUrl"`
}

// HasManifest reports whether the named manifest declared the repository
func (r *Repository) HasManifest(name string) bool {
	for _, m := range r.Manifests {
		if m == name {
			return true
		}
	}
	return false
}
