package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssdcam/detect"
	"ssdcam/notify"
)

func openTest(t *testing.T) *EventLog {
	l, err := Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func notification(id string, at time.Time, ds ...notify.Detection) *notify.Notification {
	return &notify.Notification{TraceID: id, Time: at, Detections: ds}
}

func det(label string, class int, score float32) notify.Detection {
	return notify.Detection{Label: label, Object: detect.Object{X: 1, Y: 2, Width: 3, Height: 4, ClassID: class, Score: score}}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "")
	assert.Error(t, err)
}

func TestNotifyAndRecent(t *testing.T) {
	l := openTest(t)
	base := time.Unix(1000, 0).UTC()

	require.NoError(t, l.Notify(notification("a", base, det("person", 1, 0.9))))
	require.NoError(t, l.Notify(notification("b", base.Add(time.Second), det("car", 2, 0.8), det("person", 1, 0.7))))
	require.NoError(t, l.Notify(notification("c", base.Add(2*time.Second))))

	events, err := l.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "b", events[0].TraceID)
	assert.Equal(t, "a", events[2].TraceID)
	assert.Equal(t, 3, events[2].Width)

	events, err = l.Recent(1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestCountByLabel(t *testing.T) {
	l := openTest(t)
	base := time.Unix(1000, 0).UTC()

	require.NoError(t, l.Notify(notification("a", base, det("person", 1, 0.9))))
	require.NoError(t, l.Notify(notification("b", base.Add(time.Minute), det("car", 2, 0.8), det("person", 1, 0.7), det("person", 1, 0.6))))

	counts, err := l.CountByLabel(base)
	require.NoError(t, err)
	assert.Equal(t, []LabelCount{{"person", 3}, {"car", 1}}, counts)

	counts, err = l.CountByLabel(base.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, []LabelCount{{"person", 2}, {"car", 1}}, counts)
}
