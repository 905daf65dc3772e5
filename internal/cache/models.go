package cache

import "time"

type WindowInfo struct {
	Name      string
	Bytes     int64
	UpdatedAt time.Time
}
