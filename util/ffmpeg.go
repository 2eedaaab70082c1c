package util

import (
	"fmt"
	"os"
	"os/exec"
)

// LocateFFmpeg finds the ffmpeg binary, preferring $FFMPEG over $PATH.
func LocateFFmpeg() (string, error) {
	if p := os.Getenv("FFMPEG"); p != "" {
		fi, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("FFMPEG=%v: %w", p, err)
		}
		if fi.IsDir() || fi.Mode()&0111 == 0 {
			return "", fmt.Errorf("FFMPEG=%v is not executable", p)
		}
		return p, nil
	}
	p, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found; install it or set $FFMPEG: %w", err)
	}
	return p, nil
}
