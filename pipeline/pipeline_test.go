package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinyzimmer/go-gst/gst"
)

func testDescriptor() Descriptor {
	return Descriptor{
		VideoPath:   "/data/video.mp4",
		ModelPath:   "/models/ssd_mobilenet_v1_coco.tflite",
		VideoWidth:  640,
		VideoHeight: 640,
		ModelWidth:  300,
		ModelHeight: 300,
	}
}

func TestDescriptorString(t *testing.T) {
	s := testDescriptor().String()

	for _, want := range []string{
		"filesrc location=/data/video.mp4",
		"qtdemux name=demux demux.video_0 ! decodebin",
		"video/x-raw,width=640,height=640,format=RGB ! tee name=t_raw",
		"video/x-raw,format=BGR ! appsink name=overlay_sink",
		"video/x-raw,width=300,height=300,format=RGB ! tensor_converter",
		"tensor_filter framework=tensorflow-lite model=/models/ssd_mobilenet_v1_coco.tflite",
		"appsink name=tensor_sink",
	} {
		assert.Contains(t, s, want)
	}
	assert.Equal(t, 2, strings.Count(s, "t_raw. !"))
}

func TestDescriptorQuotesPaths(t *testing.T) {
	d := testDescriptor()
	d.VideoPath = "/data/my video.mp4"
	d.Framework = "custom"
	s := d.String()
	assert.Contains(t, s, `filesrc location="/data/my video.mp4"`)
	assert.Contains(t, s, "tensor_filter framework=custom")
}

func TestDescriptorValidate(t *testing.T) {
	require.NoError(t, testDescriptor().Validate())

	d := testDescriptor()
	d.VideoPath = ""
	d.ModelHeight = 0
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no video path")
	assert.Contains(t, err.Error(), "bad model size 300x0")
}

func TestClassifyError(t *testing.T) {
	for _, tc := range []struct {
		message, debug string
		want           ErrorCategory
	}{
		{"Resource not found.", "gstfilesrc.c(532): No such file \"/x.mp4\"", ErrCategoryResource},
		{"Internal data stream error.", "streaming stopped, reason not-negotiated (-4)", ErrCategoryCodec},
		{"Failed to load tensorflow-lite model", "", ErrCategoryPlugin},
		{"no element \"tensor_filter\"", "", ErrCategoryPlugin},
		{"Something odd", "", ErrCategoryUnknown},
	} {
		assert.Equal(t, tc.want, ClassifyError(tc.message, tc.debug), tc.message)
	}
}

func TestBusError(t *testing.T) {
	err := NewBusError("filesrc0", "Could not open resource for reading.", "")
	assert.Equal(t, ErrCategoryResource, err.Category)
	assert.Equal(t, "resource error from filesrc0: Could not open resource for reading.", err.Error())

	var target *BusError
	assert.True(t, errors.As(error(err), &target))
}

type fakeStructure map[string]interface{}

func (f fakeStructure) GetValue(key string) (interface{}, error) {
	v, ok := f[key]
	if !ok {
		return nil, errors.New("no such field")
	}
	return v, nil
}

func TestParseVideoInfo(t *testing.T) {
	info, err := parseVideoInfo(fakeStructure{"width": 640, "height": 480, "format": "BGR"})
	require.NoError(t, err)
	assert.Equal(t, VideoInfo{Width: 640, Height: 480, Format: "BGR"}, info)
	assert.Equal(t, "BGR 640x480", info.String())

	_, err = parseVideoInfo(fakeStructure{"width": 640})
	assert.Error(t, err)

	_, err = parseVideoInfo(fakeStructure{"width": "640", "height": 480})
	assert.Error(t, err)

	_, err = parseVideoInfo(fakeStructure{"width": 0, "height": 480})
	assert.Error(t, err)
}

func TestParseQoSCounts(t *testing.T) {
	processed, dropped, err := parseQoSCounts(fakeStructure{
		"processed": uint64(1200),
		"dropped":   uint64(7),
		"live":      false,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1200), processed)
	assert.Equal(t, uint64(7), dropped)

	_, _, err = parseQoSCounts(fakeStructure{"processed": uint64(1)})
	assert.Error(t, err)

	_, _, err = parseQoSCounts(fakeStructure{"processed": int64(-1), "dropped": uint64(0)})
	assert.Error(t, err)
}

type recordStates struct {
	states []gst.State
}

func (r *recordStates) SetState(s gst.State) error {
	r.states = append(r.states, s)
	return nil
}

func TestAbandonReleasesPipeline(t *testing.T) {
	r := &recordStates{}
	cause := errors.New("failed to find tensor_sink")
	err := abandon(r, cause)
	assert.Same(t, cause, err)
	assert.Equal(t, []gst.State{gst.StateNull}, r.states)
}

func TestStatusMessage(t *testing.T) {
	assert.True(t, StatusMessage{Type: StatusEOS}.Fatal())
	assert.True(t, StatusMessage{Type: StatusError}.Fatal())
	assert.False(t, StatusMessage{Type: StatusWarning}.Fatal())
	assert.False(t, StatusMessage{Type: StatusQoS}.Fatal())
	assert.Equal(t, "state-changed", StatusStateChanged.String())
	assert.Equal(t, "other", StatusOther.String())
}
