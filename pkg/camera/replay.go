package camera

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// DirSource replays still images from a directory in name order.
// Useful for offline runs against recorded dashcam stills.
type DirSource struct {
	paths []string
	loop  bool

	mu     sync.Mutex
	pos    int
	seq    uint64
	closed bool
}

var replayExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".gif": true, ".tif": true, ".tiff": true,
}

// OpenDir lists the images in dir. With loop set the replay wraps around.
func OpenDir(dir string, loop bool) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("camera: read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if replayExts[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("camera: no images in %s", dir)
	}
	sort.Strings(paths)

	return &DirSource{paths: paths, loop: loop}, nil
}

// Len returns the number of images found.
func (d *DirSource) Len() int {
	return len(d.paths)
}

// Next decodes the next image.
func (d *DirSource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrSourceClosed
	}
	if d.pos >= len(d.paths) {
		if !d.loop {
			d.mu.Unlock()
			return nil, ErrExhausted
		}
		d.pos = 0
	}
	path := d.paths[d.pos]
	d.pos++
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("camera: decode %s: %w", filepath.Base(path), err)
	}

	return &Frame{Seq: seq, Captured: time.Now(), Image: img}, nil
}

// Close stops the replay.
func (d *DirSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Verify DirSource implements Source at compile time.
var _ Source = (*DirSource)(nil)
