// Package library presents a directory tree of FLAC files as a virtual tree
// of MP3 files. Virtual entries report the predicted transcode size; other
// files pass through untouched.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/olivier-w/mp3mirror/internal/transcode"
)

// ErrIsDirectory is returned by Open when the path names a directory.
var ErrIsDirectory = errors.New("is a directory")

// ErrInvalidPath is returned for paths that escape the library root.
var ErrInvalidPath = errors.New("invalid path")

// sizeProbeLimit bounds concurrent size probes during a directory listing;
// each probe parses a FLAC metadata section.
const sizeProbeLimit = 4

// Session constructor, swappable in tests.
var openSession = func(name string, cfg transcode.Config, log hclog.Logger) (transcode.File, error) {
	return transcode.Open(name, cfg, log)
}

// Entry is one listing row.
type Entry struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	IsDir   bool      `json:"is_dir"`
	Virtual bool      `json:"virtual,omitempty"`
}

// OpenFile is an open virtual or passthrough file plus the attributes the
// serving layer needs.
type OpenFile struct {
	transcode.File
	Name    string
	ModTime time.Time
}

// Library maps virtual paths under a root directory onto sessions or real
// files. Predicted sizes are cached per source path and invalidated by
// modification time.
type Library struct {
	root string
	cfg  transcode.Config
	log  hclog.Logger

	mu    sync.Mutex
	sizes map[string]sizeEntry
}

type sizeEntry struct {
	size    int64
	modTime time.Time
}

// New returns a library rooted at dir.
func New(dir string, cfg transcode.Config, log hclog.Logger) *Library {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Library{
		root:  filepath.Clean(dir),
		cfg:   cfg,
		log:   log.Named("library"),
		sizes: make(map[string]sizeEntry),
	}
}

// resolve turns a slash-separated virtual path into an absolute path inside
// the root, rejecting traversal.
func (l *Library) resolve(name string) (string, error) {
	name = path.Clean("/" + name)
	abs := filepath.Join(l.root, filepath.FromSlash(name))
	if abs != l.root && !strings.HasPrefix(abs, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, name)
	}
	return abs, nil
}

// Open opens a virtual path for reading. A .mp3 path with no real file but a
// .flac counterpart opens a transcode session; anything that exists on disk
// passes through. Directories return ErrIsDirectory.
func (l *Library) Open(name string) (*OpenFile, error) {
	abs, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	if fi, err := os.Stat(abs); err == nil {
		if fi.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrIsDirectory, name)
		}
		return openDiskFile(abs, fi)
	}

	source := transcode.SourceName(abs)
	if source == abs {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}
	fi, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}

	sess, err := openSession(abs, l.cfg, l.log)
	if err != nil {
		return nil, err
	}
	l.storeSize(source, fi.ModTime(), sess.Size())
	return &OpenFile{File: sess, Name: path.Base(name), ModTime: fi.ModTime()}, nil
}

// List returns the virtual listing of a directory: .flac files appear under
// their .mp3 names with predicted sizes, everything else passes through.
func (l *Library) List(name string) ([]Entry, error) {
	abs, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirents))
	var g errgroup.Group
	g.SetLimit(sizeProbeLimit)
	var mu sync.Mutex

	for _, de := range dirents {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			continue
		}

		if de.IsDir() {
			mu.Lock()
			entries = append(entries, Entry{Name: de.Name(), ModTime: fi.ModTime(), IsDir: true})
			mu.Unlock()
			continue
		}

		if strings.EqualFold(filepath.Ext(de.Name()), ".flac") {
			source := filepath.Join(abs, de.Name())
			virtual := de.Name()[:len(de.Name())-len(".flac")] + ".mp3"
			modTime := fi.ModTime()
			g.Go(func() error {
				size, err := l.predictedSize(source, modTime)
				if err != nil {
					l.log.Warn("size probe failed", "source", source, "error", err)
					return nil
				}
				mu.Lock()
				entries = append(entries, Entry{Name: virtual, Size: size, ModTime: modTime, Virtual: true})
				mu.Unlock()
				return nil
			})
			continue
		}

		mu.Lock()
		entries = append(entries, Entry{Name: de.Name(), Size: fi.Size(), ModTime: fi.ModTime()})
		mu.Unlock()
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// predictedSize returns the cached predicted size for a source file,
// probing with a throwaway session on a cache miss or a stale mtime.
func (l *Library) predictedSize(source string, modTime time.Time) (int64, error) {
	l.mu.Lock()
	if e, ok := l.sizes[source]; ok && e.modTime.Equal(modTime) {
		l.mu.Unlock()
		return e.size, nil
	}
	l.mu.Unlock()

	virtualPath := source[:len(source)-len(".flac")] + ".mp3"
	sess, err := openSession(virtualPath, l.cfg, l.log)
	if err != nil {
		return 0, err
	}
	size := sess.Size()
	sess.Close()

	l.storeSize(source, modTime, size)
	return size, nil
}

func (l *Library) storeSize(source string, modTime time.Time, size int64) {
	l.mu.Lock()
	l.sizes[source] = sizeEntry{size: size, modTime: modTime}
	l.mu.Unlock()
}

// diskFile adapts a real file to the transcode.File read surface.
type diskFile struct {
	*os.File
	size int64
}

func (f *diskFile) Size() int64 { return f.size }

func openDiskFile(abs string, fi fs.FileInfo) (*OpenFile, error) {
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	return &OpenFile{
		File:    &diskFile{File: f, size: fi.Size()},
		Name:    fi.Name(),
		ModTime: fi.ModTime(),
	}, nil
}
