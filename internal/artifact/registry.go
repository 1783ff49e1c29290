package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const versionsFileName = "bundle_versions.json"

// Version is one registered bundle.
type Version struct {
	Version           string    `json:"version"`
	ModelPath         string    `json:"model_path"`
	PreprocessingPath string    `json:"preprocessing_path"`
	ModelSHA256       string    `json:"model_sha256"`
	CreatedAt         time.Time `json:"created_at"`
	Note              string    `json:"note,omitempty"`
	IsActive          bool      `json:"is_active"`
}

// Registry keeps copies of bundles in a directory and tracks which one is
// active. Versions are listed newest first.
type Registry struct {
	mu           sync.RWMutex
	dir          string
	versionsFile string
	versions     []Version
}

// NewRegistry opens or creates a registry in dir.
func NewRegistry(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create bundle dir: %w", err)
	}
	r := &Registry{
		dir:          dir,
		versionsFile: filepath.Join(dir, versionsFileName),
	}
	if err := r.loadVersions(); err != nil {
		return nil, fmt.Errorf("load bundle versions: %w", err)
	}
	return r, nil
}

// Add validates a bundle, copies its files into the registry and records it
// as inactive.
func (r *Registry) Add(modelPath, preprocessingPath, note string) (Version, error) {
	b, err := Load(modelPath, preprocessingPath)
	if err != nil {
		return Version{}, err
	}

	now := time.Now().UTC()
	v := Version{
		Version:     now.Format("20060102-150405") + "-" + uuid.NewString()[:8],
		CreatedAt:   now,
		ModelSHA256: b.Info.ModelSHA256,
		Note:        note,
	}
	vdir := filepath.Join(r.dir, v.Version)
	if err := os.MkdirAll(vdir, 0o750); err != nil {
		return Version{}, fmt.Errorf("create version dir: %w", err)
	}
	v.ModelPath = filepath.Join(vdir, filepath.Base(modelPath))
	v.PreprocessingPath = filepath.Join(vdir, filepath.Base(preprocessingPath))
	if err := copyFile(modelPath, v.ModelPath); err != nil {
		return Version{}, err
	}
	if err := copyFile(preprocessingPath, v.PreprocessingPath); err != nil {
		return Version{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions = append(r.versions, v)
	sort.SliceStable(r.versions, func(i, j int) bool {
		return r.versions[i].CreatedAt.After(r.versions[j].CreatedAt)
	})
	if err := r.saveVersions(); err != nil {
		return Version{}, err
	}
	log.Info().Str("version", v.Version).Str("model_sha256", v.ModelSHA256).Msg("Bundle registered")
	return v, nil
}

// Activate marks one version active and all others inactive.
func (r *Registry) Activate(version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activate(version)
}

func (r *Registry) activate(version string) error {
	found := false
	for i := range r.versions {
		if r.versions[i].Version == version {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("version %s not found", version)
	}
	for i := range r.versions {
		r.versions[i].IsActive = r.versions[i].Version == version
	}
	if err := r.saveVersions(); err != nil {
		return err
	}
	log.Info().Str("version", version).Msg("Bundle activated")
	return nil
}

// Rollback activates the version registered just before the active one.
func (r *Registry) Rollback() (Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.versions) < 2 {
		return Version{}, fmt.Errorf("no previous version available for rollback")
	}
	current := -1
	for i, v := range r.versions {
		if v.IsActive {
			current = i
			break
		}
	}
	if current == -1 {
		return Version{}, fmt.Errorf("no active version found")
	}
	if current+1 >= len(r.versions) {
		return Version{}, fmt.Errorf("no previous version available")
	}
	prev := r.versions[current+1]
	if err := r.activate(prev.Version); err != nil {
		return Version{}, err
	}
	prev.IsActive = true
	return prev, nil
}

// Active returns the active version.
func (r *Registry) Active() (Version, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.versions {
		if v.IsActive {
			return v, true
		}
	}
	return Version{}, false
}

// LoadActive loads the active bundle.
func (r *Registry) LoadActive() (*Bundle, error) {
	v, ok := r.Active()
	if !ok {
		return nil, fmt.Errorf("%w: no active bundle in %s", ErrArtifactNotFound, r.dir)
	}
	return Load(v.ModelPath, v.PreprocessingPath)
}

// List returns all versions, newest first.
func (r *Registry) List() []Version {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Version(nil), r.versions...)
}

func (r *Registry) loadVersions() error {
	data, err := os.ReadFile(r.versionsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &r.versions)
}

func (r *Registry) saveVersions() error {
	data, err := json.MarshalIndent(r.versions, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.versionsFile, data, 0o600)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
