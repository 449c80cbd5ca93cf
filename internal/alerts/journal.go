package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Journal appends every dispatched event to a file as independent
// zstd-compressed JSON frames. Frames are self-delimiting, so the file reads
// back as one zstd stream.
type Journal struct {
	mu      sync.Mutex
	file    *os.File
	encoder *zstd.Encoder
	logger  *zap.Logger
}

func NewJournal(path string, logger *zap.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	return &Journal{file: file, encoder: encoder, logger: logger}, nil
}

// Record serializes and appends one event. Errors are logged, never
// propagated; the journal must not interfere with dispatch.
func (j *Journal) Record(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		j.logger.Warn("journal marshal failed", zap.Error(err))
		return
	}
	data = append(data, '\n')

	frame := j.encoder.EncodeAll(data, nil)

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(frame); err != nil {
		j.logger.Warn("journal write failed", zap.Error(err))
	}
}

// Close releases the encoder and the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.encoder.Close()
	return j.file.Close()
}
