package shared

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/vsinha/sampledist/pkg/domain/entities"
)

// Diagnostics accumulates data integrity warnings. It is safe for concurrent use
// and logs every warning as it is recorded.
type Diagnostics struct {
	logger   *zap.Logger
	mu       sync.Mutex
	warnings []entities.DataIntegrityWarning
}

// NewDiagnostics creates a collector. A nil logger disables logging.
func NewDiagnostics(logger *zap.Logger) *Diagnostics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Diagnostics{logger: logger}
}

// Warn records a warning
func (d *Diagnostics) Warn(importID entities.ImportID, code entities.MaterialCode, kind entities.WarningKind, message string) {
	if d == nil {
		return
	}
	d.logger.Warn("Data integrity warning",
		zap.Int64("import_id", int64(importID)),
		zap.String("material", string(code)),
		zap.String("kind", string(kind)),
		zap.String("detail", message),
	)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.warnings = append(d.warnings, entities.DataIntegrityWarning{
		ImportID:     importID,
		MaterialCode: code,
		Kind:         kind,
		Message:      message,
	})
}

// Warnings returns the recorded warnings ordered by material, kind and message,
// so concurrent producers still yield a stable list
func (d *Diagnostics) Warnings() []entities.DataIntegrityWarning {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]entities.DataIntegrityWarning, len(d.warnings))
	copy(out, d.warnings)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MaterialCode != out[j].MaterialCode {
			return out[i].MaterialCode < out[j].MaterialCode
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Message < out[j].Message
	})
	return out
}

// Len returns the number of recorded warnings
func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.warnings)
}
