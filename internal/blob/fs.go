package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const metaSuffix = ".meta"

// FS stores blobs as files under a root directory. Each blob has a JSON
// sidecar holding its content type.
type FS struct {
	root string
}

// NewFS returns a filesystem store rooted at root, creating it if needed.
func NewFS(root string) (*FS, error) {
	if root == "" {
		root = "blobs"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob dir: %w", err)
	}
	return &FS{root: root}, nil
}

func (s *FS) Driver() Driver { return DriverFilesystem }

type fsMeta struct {
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *FS) paths(key string) (string, string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", "", err
	}
	data := filepath.Join(s.root, filepath.FromSlash(k))
	return data, data + metaSuffix, nil
}

func (s *FS) Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return Info{}, fmt.Errorf("creating blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return Info{}, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return Info{}, fmt.Errorf("writing blob %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return Info{}, fmt.Errorf("writing blob %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return Info{}, fmt.Errorf("writing blob %s: %w", key, err)
	}

	meta := fsMeta{ContentType: contentType, Size: size, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(meta)
	if err != nil {
		return Info{}, err
	}
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		return Info{}, fmt.Errorf("writing blob metadata: %w", err)
	}
	return Info{Key: key, Size: size, ContentType: contentType, LastModified: meta.UpdatedAt}, nil
}

func (s *FS) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return Info{}, nil, err
	}
	f, err := os.Open(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, nil, ErrNotFound
	}
	if err != nil {
		return Info{}, nil, err
	}
	meta, err := readFSMeta(metaPath)
	if err != nil {
		f.Close()
		return Info{}, nil, err
	}
	return Info{Key: key, Size: meta.Size, ContentType: meta.ContentType, LastModified: meta.UpdatedAt}, f, nil
}

func (s *FS) Delete(ctx context.Context, key string) (bool, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(dataPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	os.Remove(metaPath)
	return true, nil
}

func (s *FS) List(ctx context.Context, prefix string) ([]Info, error) {
	var infos []Info
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(p, metaSuffix))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		meta, err := readFSMeta(p)
		if err != nil {
			return err
		}
		infos = append(infos, Info{Key: key, Size: meta.Size, ContentType: meta.ContentType, LastModified: meta.UpdatedAt})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing blobs: %w", err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func readFSMeta(path string) (fsMeta, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return fsMeta{}, fmt.Errorf("reading blob metadata: %w", err)
	}
	var m fsMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return fsMeta{}, fmt.Errorf("parsing blob metadata: %w", err)
	}
	return m, nil
}
