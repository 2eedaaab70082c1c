package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Fixed file names expected inside the model directory.
const (
	ModelFile    = "ssd_mobilenet_v1_coco.tflite"
	LabelFile    = "coco_labels_list.txt"
	BoxPriorFile = "box_priors-ssd_mobilenet.txt"
)

var ErrMissingFile = errors.New("required model file missing")

// Info holds everything loaded from the model directory at start-up. It is
// immutable once Load returns.
type Info struct {
	Dir          string
	ModelPath    string
	LabelPath    string
	BoxPriorPath string

	Labels    Labels
	BoxPriors *BoxPriors
}

type Options struct {
	// DetectionMax is the number of boxes the model emits. When non-zero each
	// box prior row must have exactly this many columns.
	DetectionMax int
}

// Load validates that the model, label and box prior files all exist under
// dir and parses the label and prior tables. Any failure aborts the whole
// load; a partially loaded Info is never returned.
func Load(dir string, opts Options) (*Info, error) {
	info := &Info{
		Dir:          dir,
		ModelPath:    filepath.Join(dir, ModelFile),
		LabelPath:    filepath.Join(dir, LabelFile),
		BoxPriorPath: filepath.Join(dir, BoxPriorFile),
	}

	for _, p := range []string{info.ModelPath, info.LabelPath, info.BoxPriorPath} {
		if err := checkRegular(p); err != nil {
			return nil, err
		}
	}

	priors, err := LoadBoxPriors(info.BoxPriorPath, opts.DetectionMax)
	if err != nil {
		return nil, err
	}
	labels, err := LoadLabels(info.LabelPath)
	if err != nil {
		return nil, err
	}
	info.BoxPriors = priors
	info.Labels = labels

	log.WithField("dir", dir).Infof("Loaded model info: %d labels, %d box priors", len(labels), priors.Len())
	return info, nil
}

func checkRegular(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrMissingFile, path)
	}
	return nil
}
