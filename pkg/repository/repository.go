// Package repository implements named Maven repositories over a filesystem
// abstraction.
//
// Each repository is a path-addressed blob store rooted in its own directory.
// The filesystem is abstracted behind afero so tests run against an
// in-memory filesystem and production runs against the OS.
package repository

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"

	"github.com/quarryhq/quarry/internal/logger"
)

// Common repository errors.
var (
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrArtifactNotFound   = errors.New("artifact not found")
	ErrDeployDisabled     = errors.New("deployment is disabled for this repository")
)

// Visibility controls who can download from a repository.
type Visibility string

const (
	// Public repositories serve downloads without authentication.
	Public Visibility = "public"

	// Hidden repositories require an authorized token even for downloads.
	Hidden Visibility = "hidden"
)

// Options declares a single repository.
type Options struct {
	Name       string
	Visibility Visibility
	Deploy     bool
}

// Repository is one named artifact store.
type Repository struct {
	name       string
	visibility Visibility
	deploy     bool
	fs         afero.Fs
}

// Name returns the repository name.
func (r *Repository) Name() string { return r.name }

// IsPublic reports whether unauthenticated downloads are allowed.
func (r *Repository) IsPublic() bool { return r.visibility == Public }

// DeployEnabled reports whether uploads are accepted.
func (r *Repository) DeployEnabled() bool { return r.deploy }

// Get opens an artifact for reading. The caller must close the reader.
func (r *Repository) Get(artifactPath string) (io.ReadCloser, os.FileInfo, error) {
	p, err := NormalizePath(artifactPath)
	if err != nil {
		return nil, nil, err
	}

	info, err := r.fs.Stat(p)
	if err != nil || info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, p)
	}

	f, err := r.fs.Open(p)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open artifact %s: %w", p, err)
	}
	return f, info, nil
}

// Put stores an artifact, creating parent directories as needed. Existing
// artifacts are overwritten; Maven redeploys snapshots freely and the
// repository does not police versioning policy here.
func (r *Repository) Put(artifactPath string, content io.Reader) (int64, error) {
	if !r.deploy {
		return 0, ErrDeployDisabled
	}

	p, err := NormalizePath(artifactPath)
	if err != nil {
		return 0, err
	}

	if dir := path.Dir(p); dir != "." {
		if err := r.fs.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}

	f, err := r.fs.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create artifact %s: %w", p, err)
	}

	written, err := io.Copy(f, content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return written, fmt.Errorf("failed to write artifact %s: %w", p, err)
	}

	logger.Debug("Artifact stored", logger.KeyRepository, r.name, logger.KeyPath, p, logger.KeySize, written)
	return written, nil
}

// Exists reports whether an artifact is present.
func (r *Repository) Exists(artifactPath string) bool {
	p, err := NormalizePath(artifactPath)
	if err != nil {
		return false
	}
	info, err := r.fs.Stat(p)
	return err == nil && !info.IsDir()
}

// List returns the entries directly under dirPath, directories first.
func (r *Repository) List(dirPath string) ([]string, error) {
	p := dirPath
	if p == "" || p == "/" {
		p = "."
	} else {
		var err error
		if p, err = NormalizePath(p); err != nil {
			return nil, err
		}
	}

	entries, err := afero.ReadDir(r.fs, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, dirPath)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Service holds the configured repositories in declaration order.
type Service struct {
	repos map[string]*Repository
	order []string
}

// NewService builds repositories rooted under base, one subdirectory per
// repository.
func NewService(base afero.Fs, options []Options) (*Service, error) {
	s := &Service{repos: make(map[string]*Repository, len(options))}

	for _, opt := range options {
		if opt.Name == "" {
			return nil, errors.New("repository name cannot be empty")
		}
		if _, exists := s.repos[opt.Name]; exists {
			return nil, fmt.Errorf("duplicate repository: %s", opt.Name)
		}

		visibility := opt.Visibility
		if visibility == "" {
			visibility = Public
		}

		if err := base.MkdirAll(opt.Name, 0755); err != nil {
			return nil, fmt.Errorf("failed to create repository directory %s: %w", opt.Name, err)
		}

		s.repos[opt.Name] = &Repository{
			name:       opt.Name,
			visibility: visibility,
			deploy:     opt.Deploy,
			fs:         afero.NewBasePathFs(base, opt.Name),
		}
		s.order = append(s.order, opt.Name)
	}

	return s, nil
}

// Get returns the named repository.
func (s *Service) Get(name string) (*Repository, error) {
	repo, ok := s.repos[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, name)
	}
	return repo, nil
}

// Names returns repository names in declaration order.
func (s *Service) Names() []string {
	return append([]string(nil), s.order...)
}
