package ports

import "tagren/internal/domain"

// ReportWriter receives one row per processed item
type ReportWriter interface {
	WriteItem(rec domain.ItemRecord) error
	Close() error
}
