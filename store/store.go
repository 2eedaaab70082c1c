// Package store keeps a log of detection notifications in a SQL database.
package store

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ssdcam/notify"
)

// Event is one labelled detection from a notification.
type Event struct {
	gorm.Model

	TraceID string    `gorm:"index"`
	At      time.Time `gorm:"index"`
	Label   string    `gorm:"index"`
	ClassID int
	Score   float32

	X, Y, Width, Height int
}

type EventLog struct {
	db *gorm.DB
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", driver)
}

// Open connects to the database and migrates the event table.
func Open(driver, dsn string) (*EventLog, error) {
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.New(log.StandardLogger(), logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %v database: %w", driver, err)
	}
	if err := db.AutoMigrate(&Event{}); err != nil {
		return nil, fmt.Errorf("failed to migrate events: %w", err)
	}
	log.Infof("Logging detection events to %v database", driver)
	return &EventLog{db: db}, nil
}

func (e *EventLog) Name() string {
	return "store"
}

// Notify records every detection of the notification.
func (e *EventLog) Notify(n *notify.Notification) error {
	events := make([]Event, 0, len(n.Detections))
	for _, d := range n.Detections {
		events = append(events, Event{
			TraceID: n.TraceID,
			At:      n.Time,
			Label:   d.Label,
			ClassID: d.ClassID,
			Score:   d.Score,
			X:       d.X,
			Y:       d.Y,
			Width:   d.Width,
			Height:  d.Height,
		})
	}
	if len(events) == 0 {
		return nil
	}
	return e.db.Create(&events).Error
}

// Recent returns up to limit events, newest first.
func (e *EventLog) Recent(limit int) ([]Event, error) {
	var events []Event
	err := e.db.Order("at desc, id desc").Limit(limit).Find(&events).Error
	return events, err
}

type LabelCount struct {
	Label string
	Count int64
}

// CountByLabel tallies events at or after since.
func (e *EventLog) CountByLabel(since time.Time) ([]LabelCount, error) {
	var counts []LabelCount
	err := e.db.Model(&Event{}).
		Select("label, count(*) as count").
		Where("at >= ?", since).
		Group("label").
		Order("count(*) desc, label").
		Scan(&counts).Error
	return counts, err
}

func (e *EventLog) Close() error {
	db, err := e.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
