package recorder

import "SwingSentinel/internal/model"

// NoopRecorder is used when persistence is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ *model.ScanResult) error { return nil }
func (n *NoopRecorder) Close() error                         { return nil }
