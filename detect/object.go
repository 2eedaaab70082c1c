package detect

import (
	"fmt"
	"image"
)

// Object is a single detection in display-frame pixel coordinates.
type Object struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	ClassID int     `json:"class_id"`
	Score   float32 `json:"score"`
}

// Rect returns the bounding box as an image.Rectangle.
func (o Object) Rect() image.Rectangle {
	return image.Rect(o.X, o.Y, o.X+o.Width, o.Y+o.Height)
}

func (o Object) String() string {
	return fmt.Sprintf("class %d %.2f%% (%d, %d) %dx%d", o.ClassID, 100*o.Score, o.X, o.Y, o.Width, o.Height)
}

// Area returns the box area in pixels.
func (o Object) Area() int {
	return o.Width * o.Height
}

// IOU is intersection over union of the two boxes.
func (o Object) IOU(b Object) float32 {
	inter := o.Rect().Intersect(b.Rect())
	ia := inter.Dx() * inter.Dy()
	union := o.Area() + b.Area() - ia
	if union <= 0 {
		return 0
	}
	return float32(ia) / float32(union)
}
