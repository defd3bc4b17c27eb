package watcher

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	DefaultDebounceDuration = 500 * time.Millisecond
)

var (
	// События, за которыми мы следим. Редакторы часто пишут через rename.
	WatchedEvents = fsnotify.Create | fsnotify.Write | fsnotify.Rename
)
