package video

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pillash/mp4util"
	log "github.com/sirupsen/logrus"
)

// Info describes an input video file.
type Info struct {
	Path     string
	Size     int64
	Duration time.Duration
}

// Probe checks that path is a readable video file and, for mp4 files, reads
// its duration from the container.
func Probe(path string) (*Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("video %v: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("video %v is not a regular file", path)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("video %v is empty", path)
	}
	info := &Info{
		Path: path,
		Size: fi.Size(),
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v", ".mov":
		secs, err := mp4util.Duration(path)
		if err != nil {
			// The demuxer may still cope; only the duration is lost.
			log.Warnf("Unable to read duration of %v: %v", path, err)
			break
		}
		info.Duration = time.Duration(secs) * time.Second
	}
	log.WithField("path", path).Infof("Input video %d bytes, duration %v", info.Size, info.Duration)
	return info, nil
}
