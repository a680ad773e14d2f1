package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/todos-api/apiserver/internal/logger"
	"github.com/todos-api/apiserver/types"
	"go.uber.org/zap"
)

// ObjectWriter uploads objects. *storage.Storage implements it.
type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// Archiver snapshots a user's todos to object storage before they are
// bulk deleted.
type Archiver struct {
	objects ObjectWriter
	newKey  func(ownerID int) string
}

func NewArchiver(objects ObjectWriter) *Archiver {
	return &Archiver{objects: objects, newKey: archiveKey}
}

func archiveKey(ownerID int) string {
	return fmt.Sprintf("archives/users/%d/todos-%s.json", ownerID, uuid.NewString())
}

// Save writes todos as a JSON array. Empty snapshots are skipped. Failures
// are logged; the archive never blocks a delete.
func (a *Archiver) Save(ctx context.Context, ownerID int, todos []types.Todo) {
	if len(todos) == 0 {
		return
	}
	key := a.newKey(ownerID)
	log := logger.Log.With(zap.Int("user_id", ownerID), zap.String("key", key))

	data, err := json.Marshal(todos)
	if err != nil {
		log.Warn("encode todo archive failed", zap.Error(err))
		return
	}
	if err := a.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		log.Warn("upload todo archive failed", zap.Error(err))
		return
	}
	log.Debug("todo archive written", zap.Int("count", len(todos)))
}
