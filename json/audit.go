// Package json persists the approval gate's audit log as a versioned JSON
// file. The envelope carries an explicit version so the on-disk format can
// evolve without guessing what wrote an old file.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mwidla/teleop/gate"
)

// AuditLog is one session's worth of gate activity.
type AuditLog struct {
	SessionID string
	CreatedAt time.Time
	UpdatedAt time.Time
	Records   []gate.Record
}

// envelope is the v1 wire format for a persisted audit log.
type envelope struct {
	Version   int           `json:"version"`
	SessionID string        `json:"session_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Records   []gate.Record `json:"records"`
}

// MarshalAuditLog serializes an AuditLog in v1 envelope format.
func MarshalAuditLog(a AuditLog) ([]byte, error) {
	records := a.Records
	if records == nil {
		records = []gate.Record{}
	}
	return json.MarshalIndent(envelope{
		Version:   1,
		SessionID: a.SessionID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		Records:   records,
	}, "", "  ")
}

// UnmarshalAuditLog deserializes an AuditLog from v1 envelope format.
func UnmarshalAuditLog(data []byte) (AuditLog, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return AuditLog{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return AuditLog{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	return AuditLog{
		SessionID: env.SessionID,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		Records:   env.Records,
	}, nil
}

// Save writes an AuditLog to path atomically, creating parent directories
// as needed. A crash mid-write leaves the previous file intact.
func Save(path string, a AuditLog) error {
	data, err := MarshalAuditLog(a)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads an AuditLog from a JSON file.
func Load(path string) (AuditLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AuditLog{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalAuditLog(data)
}
