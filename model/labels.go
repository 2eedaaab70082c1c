package model

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Labels maps a class id to its human readable name.
type Labels []string

// Lookup returns the label for a class id, and false if the id is out of range.
func (l Labels) Lookup(classID int) (string, bool) {
	if classID < 0 || classID >= len(l) {
		return "", false
	}
	return l[classID], true
}

// LoadLabels reads one label per line. Every line is kept, including blank
// ones, so line N of the file is class id N.
func LoadLabels(path string) (Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer f.Close()

	var labels Labels
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label file %s: %w", path, err)
	}
	return labels, nil
}
