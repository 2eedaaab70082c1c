package pipeline

import (
	"fmt"
)

type fieldGetter interface {
	GetValue(key string) (interface{}, error)
}

// parseVideoInfo reads the geometry of a video/x-raw caps structure.
func parseVideoInfo(s fieldGetter) (VideoInfo, error) {
	var info VideoInfo
	var err error
	if info.Width, err = intField(s, "width"); err != nil {
		return info, err
	}
	if info.Height, err = intField(s, "height"); err != nil {
		return info, err
	}
	if v, err := s.GetValue("format"); err == nil {
		info.Format, _ = v.(string)
	}
	if !info.Valid() {
		return info, fmt.Errorf("invalid geometry %dx%d", info.Width, info.Height)
	}
	return info, nil
}

// parseQoSCounts reads the processed and dropped buffer counts of a QoS
// message structure.
func parseQoSCounts(s fieldGetter) (processed, dropped uint64, err error) {
	if processed, err = uintField(s, "processed"); err != nil {
		return 0, 0, err
	}
	if dropped, err = uintField(s, "dropped"); err != nil {
		return 0, 0, err
	}
	return processed, dropped, nil
}

func uintField(s fieldGetter, key string) (uint64, error) {
	v, err := s.GetValue(key)
	if err != nil {
		return 0, fmt.Errorf("no %s in structure: %w", key, err)
	}
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint32:
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	case int64:
		if n >= 0 {
			return uint64(n), nil
		}
	case int:
		if n >= 0 {
			return uint64(n), nil
		}
	}
	return 0, fmt.Errorf("%s has unexpected value %v (%T)", key, v, v)
}

func intField(s fieldGetter, key string) (int, error) {
	v, err := s.GetValue(key)
	if err != nil {
		return 0, fmt.Errorf("no %s in caps: %w", key, err)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	}
	return 0, fmt.Errorf("%s has unexpected type %T", key, v)
}
