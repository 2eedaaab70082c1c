package detect

import (
	"sort"
)

// NMS sorts objs by descending score and drops any object that overlaps a
// higher scoring object of the same class by more than iouThreshold. A
// threshold of zero or less disables suppression.
func NMS(objs []Object, iouThreshold float32) []Object {
	sort.SliceStable(objs, func(i, j int) bool {
		return objs[i].Score > objs[j].Score
	})
	if iouThreshold <= 0 {
		return objs
	}

	suppressed := make([]bool, len(objs))
	out := make([]Object, 0, len(objs))
	for i, o := range objs {
		if suppressed[i] {
			continue
		}
		out = append(out, o)
		for j := i + 1; j < len(objs); j++ {
			if !suppressed[j] && objs[j].ClassID == o.ClassID && o.IOU(objs[j]) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return out
}
