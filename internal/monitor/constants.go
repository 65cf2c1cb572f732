package monitor

import "time"

const (
	defaultRefreshInterval = 2 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	maxVisibleNotices      = 3
	minLogLines            = 3
	threadBarWidth         = 24
	overallBarWidth        = 40
)
