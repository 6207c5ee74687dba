package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const cacheExt = ".cache"

// diskEnvelope es el formato en disco: epoch seconds + payload crudo.
type diskEnvelope struct {
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Disk es la caché persistente: un archivo JSON por clave dentro de dir.
type Disk struct {
	dir string
	now func() time.Time
}

// NewDisk crea la caché de disco y asegura que el directorio exista.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache.NewDisk: mkdir %q: %w", dir, err)
	}
	return &Disk{dir: dir, now: time.Now}, nil
}

// Load decodifica la entrada de key en dest si existe y su edad no supera
// maxAge. Devuelve el timestamp con que fue guardada. Archivo ausente o
// vencido → ErrMiss; archivo ilegible o JSON inválido → ErrCorrupt.
func (d *Disk) Load(key string, maxAge time.Duration, dest any) (time.Time, error) {
	raw, err := os.ReadFile(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, ErrMiss
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: read %s: %v", ErrCorrupt, key, err)
	}

	var env diskEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return time.Time{}, fmt.Errorf("%w: decode %s: %v", ErrCorrupt, key, err)
	}

	storedAt := time.Unix(env.Timestamp, 0)
	if d.now().Sub(storedAt) >= maxAge {
		return time.Time{}, ErrMiss
	}

	if err := json.Unmarshal(env.Data, dest); err != nil {
		return time.Time{}, fmt.Errorf("%w: decode payload %s: %v", ErrCorrupt, key, err)
	}
	return storedAt, nil
}

// Store serializa data bajo key con el timestamp actual. Un fallo de
// escritura no es fatal para el caller: se propaga para que lo loguee
// y siga como si fuera un miss futuro.
func (d *Disk) Store(key string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cache.Disk.Store: marshal %s: %w", key, err)
	}
	env := diskEnvelope{Timestamp: d.now().Unix(), Data: payload}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("cache.Disk.Store: marshal envelope %s: %w", key, err)
	}
	if err := os.WriteFile(d.path(key), raw, 0o644); err != nil {
		return fmt.Errorf("cache.Disk.Store: write %s: %w", key, err)
	}
	return nil
}

// Prune borra oportunísticamente los archivos .cache con mtime más viejo
// que maxAge. Las claves en keep quedan exentas: su vencimiento lo
// gobierna el maxAge de cada Load, no el del prune. Se llama una vez al
// arrancar el cliente; los errores por archivo se loguean y no cortan
// la pasada.
func (d *Disk) Prune(maxAge time.Duration, keep ...string) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		slog.Warn("cache prune: read dir failed", "dir", d.dir, "err", err)
		return
	}

	kept := make(map[string]bool, len(keep))
	for _, key := range keep {
		kept[filepath.Base(key)+cacheExt] = true
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != cacheExt || kept[e.Name()] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if d.now().Sub(info.ModTime()) > maxAge {
			if err := os.Remove(filepath.Join(d.dir, e.Name())); err != nil {
				slog.Warn("cache prune: remove failed", "file", e.Name(), "err", err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("cache prune complete", "removed", removed)
	}
}

// path devuelve la ruta del archivo de key. filepath.Base evita que una
// clave con separadores escape del directorio de caché.
func (d *Disk) path(key string) string {
	return filepath.Join(d.dir, filepath.Base(key)+cacheExt)
}
