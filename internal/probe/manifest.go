package probe

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the build-time-authored asset table consulted in
// static-manifest mode: dataset -> summary set -> pair directory -> image
// filenames. Keeping it consistent with the deployed asset layout is the
// build process's job, not the prober's.
type Manifest map[string]map[string]map[string][]string

// DefaultManifest returns the compiled-in table matching the published
// corpus layout.
func DefaultManifest() Manifest {
	return Manifest{
		"Inc500Charts": {
			"sum1_ques1": {
				"pair1": {"5.png", "7.png"},
				"pair2": {"10.png", "8.png"},
			},
			"sum3_ques1": {
				"pair1": {"6.png", "7.png"},
				"pair2": {"12.png", "13.png"},
				"pair3": {"10.png", "11.png"},
			},
			"sum3_ques2": {
				"pair1": {"1.png", "2.png"},
				"pair2": {"10.png", "8.png"},
				"pair3": {"14.png", "15.png"},
			},
		},
		"fifa18_rendered_charts": {
			"sum1_ques2": {
				"pair1": {"15.png", "17.png"},
				"pair2": {"10.png", "20.png"},
			},
			"sum3_ques1": {
				"pair1": {"2.png", "4.png"},
				"pair2": {"1.png", "7.png"},
				"pair3": {"7.png", "9.png"},
				"pair4": {"12.png", "16.png"},
				"pair5": {"18.png", "20.png"},
				"pair6": {"19.png", "25.png"},
			},
			"sum3_ques2": {
				"pair1": {"14.png", "5.png"},
				"pair2": {"15.png", "3.png"},
				"pair3": {"16.png", "18.png"},
			},
		},
		"ATP_rendered_charts": {
			"sum1_ques3": {
				"pair1": {"11.png", "9.png"},
				"pair2": {"6.png", "7.png"},
				"pair3": {"1.png", "6.png"},
				"pair4": {"10.png", "4.png"},
			},
			"sum3_ques2": {
				"pair1": {"6.png", "8.png"},
			},
		},
	}
}

// LoadManifest reads a YAML manifest file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

// ManifestProber is the static-manifest existence strategy for hosts without
// directory introspection. It never touches the network: existence questions
// are answered from the authored table.
type ManifestProber struct {
	baseURL  string
	manifest Manifest
}

// NewManifestProber creates a manifest-mode strategy rooted at baseURL.
func NewManifestProber(baseURL string, manifest Manifest) *ManifestProber {
	if manifest == nil {
		manifest = DefaultManifest()
	}
	return &ManifestProber{
		baseURL:  strings.TrimRight(baseURL, "/"),
		manifest: manifest,
	}
}

// DirExists answers from the manifest at whichever depth the path addresses:
// dataset, summary set, or pair directory.
func (p *ManifestProber) DirExists(_ context.Context, path string) bool {
	segs, ok := p.split(path)
	if !ok || len(segs) == 0 || len(segs) > 3 {
		return false
	}

	dataset, ok := p.manifest[segs[0]]
	if !ok {
		return false
	}
	if len(segs) == 1 {
		return true
	}

	summary, ok := dataset[segs[1]]
	if !ok {
		return false
	}
	if len(segs) == 2 {
		return true
	}

	_, ok = summary[segs[2]]
	return ok
}

// FileExists answers true only for images listed under their pair directory.
func (p *ManifestProber) FileExists(_ context.Context, path string) bool {
	segs, ok := p.split(path)
	if !ok || len(segs) != 4 {
		return false
	}
	for _, name := range p.manifest[segs[0]][segs[1]][segs[2]] {
		if name == segs[3] {
			return true
		}
	}
	return false
}

// KnownImages returns the authored image list for a pair directory path.
func (p *ManifestProber) KnownImages(path string) ([]string, bool) {
	segs, ok := p.split(path)
	if !ok || len(segs) != 3 {
		return nil, false
	}
	images, ok := p.manifest[segs[0]][segs[1]][segs[2]]
	if !ok {
		return nil, false
	}
	return images, true
}

// split strips the base URL and returns the remaining path segments.
func (p *ManifestProber) split(path string) ([]string, bool) {
	trimmed := strings.TrimRight(path, "/")
	if !strings.HasPrefix(trimmed, p.baseURL) {
		return nil, false
	}
	rest := strings.Trim(strings.TrimPrefix(trimmed, p.baseURL), "/")
	if rest == "" {
		return nil, true
	}
	return strings.Split(rest, "/"), true
}
