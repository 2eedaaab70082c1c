package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Names of the appsinks the engine attaches callbacks to.
const (
	OverlaySinkName = "overlay_sink"
	TensorSinkName  = "tensor_sink"
)

// Descriptor describes the processing graph:
//
//	filesrc -> qtdemux -> decodebin -> videoconvert -> videoscale -> tee
//	  tee -> queue -> videoconvert (BGR) -> overlay_sink
//	  tee -> queue -> videoscale -> tensor_converter -> tensor_transform -> tensor_filter -> tensor_sink
type Descriptor struct {
	VideoPath string
	ModelPath string

	VideoWidth, VideoHeight int
	ModelWidth, ModelHeight int

	// Framework is the tensor_filter framework name.
	Framework string
}

func (d Descriptor) Validate() error {
	var errs []string
	if d.VideoPath == "" {
		errs = append(errs, "no video path")
	}
	if d.ModelPath == "" {
		errs = append(errs, "no model path")
	}
	if d.VideoWidth <= 0 || d.VideoHeight <= 0 {
		errs = append(errs, fmt.Sprintf("bad video size %dx%d", d.VideoWidth, d.VideoHeight))
	}
	if d.ModelWidth <= 0 || d.ModelHeight <= 0 {
		errs = append(errs, fmt.Sprintf("bad model size %dx%d", d.ModelWidth, d.ModelHeight))
	}
	if len(errs) > 0 {
		return errors.New("invalid pipeline: " + strings.Join(errs, ", "))
	}
	return nil
}

func (d Descriptor) framework() string {
	if d.Framework == "" {
		return "tensorflow-lite"
	}
	return d.Framework
}

// String renders the launch line handed to the engine.
func (d Descriptor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "filesrc location=%s ! qtdemux name=demux demux.video_0 ! decodebin ! ", quote(d.VideoPath))
	fmt.Fprintf(&b, "videoconvert ! videoscale ! video/x-raw,width=%d,height=%d,format=RGB ! tee name=t_raw ", d.VideoWidth, d.VideoHeight)

	b.WriteString("t_raw. ! queue leaky=2 max-size-buffers=2 ! videoconvert ! video/x-raw,format=BGR ! ")
	fmt.Fprintf(&b, "appsink name=%s max-buffers=1 drop=true sync=true ", OverlaySinkName)

	b.WriteString("t_raw. ! queue leaky=2 max-size-buffers=2 ! videoscale ! ")
	fmt.Fprintf(&b, "video/x-raw,width=%d,height=%d,format=RGB ! tensor_converter ! ", d.ModelWidth, d.ModelHeight)
	b.WriteString("tensor_transform mode=arithmetic option=typecast:float32,add:-127.5,div:127.5 ! ")
	fmt.Fprintf(&b, "tensor_filter framework=%s model=%s ! ", d.framework(), quote(d.ModelPath))
	fmt.Fprintf(&b, "appsink name=%s max-buffers=1 drop=true sync=false", TensorSinkName)
	return b.String()
}

func quote(s string) string {
	if strings.ContainsAny(s, " \t\"!") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}
