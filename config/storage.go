package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StorageBackend selects where the session is persisted.
type StorageBackend string

const (
	// StorageBackendMemory keeps the session in process memory only.
	StorageBackendMemory StorageBackend = "memory"
	// StorageBackendFile persists the session to a JSON file on local disk.
	StorageBackendFile StorageBackend = "file"
	// StorageBackendRedis persists the session in Redis, shared by every process using the same prefix.
	StorageBackendRedis StorageBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (b *StorageBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "file", "redis":
		*b = StorageBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: memory, file, redis)", v)
	}
}

// StorageConfig controls durable session storage.
type StorageConfig struct {
	Backend StorageBackend `env:"STORAGE_BACKEND" envDefault:"file"`

	// FilePath is the JSON document used when Backend=file.
	// Defaults to <user config dir>/storefront/session.json.
	FilePath string `env:"STORAGE_FILE_PATH"`

	// KeyPrefix namespaces keys when Backend=redis.
	KeyPrefix string `env:"STORAGE_KEY_PREFIX" envDefault:"storefront:"`
}

// Sanitize fills in the default file location.
func (s *StorageConfig) Sanitize() {
	if s.Backend == "" {
		s.Backend = StorageBackendFile
	}
	s.FilePath = strings.TrimSpace(s.FilePath)
	if s.FilePath == "" {
		s.FilePath = DefaultSessionFile()
	}
}

// DefaultSessionFile returns the per-user session file location, falling back
// to the working directory when no config dir is known.
func DefaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".storefront", "session.json")
	}
	return filepath.Join(dir, "storefront", "session.json")
}
