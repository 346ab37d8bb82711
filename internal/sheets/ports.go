package sheets

import "context"

// BackupRow is one mirrored transaction row.
type BackupRow struct {
	Date     string
	Type     string
	Category string
	Amount   float64
	Note     string
}

// Ports for outbound adapters.
type (
	// BackupWriter appends mirrored transactions to an external backup
	// destination.
	BackupWriter interface {
		Append(ctx context.Context, row BackupRow) error
	}
)
