package model

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// BoxRows is the number of rows in a box prior table: y-center, x-center,
// height and width.
const BoxRows = 4

const (
	PriorYCenter = iota
	PriorXCenter
	PriorHeight
	PriorWidth
)

var ErrMalformedPriors = errors.New("malformed box priors")

// BoxPriors is the 4xN anchor table used to decode SSD box encodings.
type BoxPriors struct {
	Rows [BoxRows][]float32
}

// Len returns the number of anchors (columns).
func (b *BoxPriors) Len() int {
	return len(b.Rows[0])
}

// At returns the value of row r for anchor d.
func (b *BoxPriors) At(r, d int) float32 {
	return b.Rows[r][d]
}

// LoadBoxPriors parses a box prior file. See ParseBoxPriors.
func LoadBoxPriors(path string, columns int) (*BoxPriors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open box prior file: %w", err)
	}
	defer f.Close()

	p, err := ParseBoxPriors(f, columns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParseBoxPriors reads exactly four lines of whitespace separated floats.
// Runs of separators are allowed. Every token must be a finite number, every
// row must have the same number of columns, and if columns is non-zero that
// count must match it.
func ParseBoxPriors(r io.Reader, columns int) (*BoxPriors, error) {
	p := &BoxPriors{}
	scanner := bufio.NewScanner(r)
	// Prior rows are long (thousands of values).
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	row := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if row >= BoxRows {
			if line == "" {
				continue
			}
			return nil, fmt.Errorf("%w: more than %d rows", ErrMalformedPriors, BoxRows)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: row %d is empty", ErrMalformedPriors, row+1)
		}
		values := make([]float32, len(fields))
		for i, tok := range fields {
			v, err := strconv.ParseFloat(tok, 32)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d column %d: %q is not a finite number", ErrMalformedPriors, row+1, i+1, tok)
			}
			values[i] = float32(v)
		}
		p.Rows[row] = values
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read box priors: %w", err)
	}
	if row != BoxRows {
		return nil, fmt.Errorf("%w: expected %d rows, found %d", ErrMalformedPriors, BoxRows, row)
	}

	n := len(p.Rows[0])
	for i := 1; i < BoxRows; i++ {
		if len(p.Rows[i]) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, row 1 has %d", ErrMalformedPriors, i+1, len(p.Rows[i]), n)
		}
	}
	if columns > 0 && n != columns {
		return nil, fmt.Errorf("%w: expected %d columns, found %d", ErrMalformedPriors, columns, n)
	}
	return p, nil
}
