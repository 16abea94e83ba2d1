// Package catalogfs implements the Filesystem Catalog (C7): the sole
// owner of on-disk mutations under <table>/metadata/. It initializes the
// table layout, performs versioned atomic commits via a version-hint
// pointer, and loads the current metadata.
package catalogfs

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/brightloom/icebridge/pkg/errors"
	iceschema "github.com/brightloom/icebridge/server/iceberg"
)

var (
	ErrIOFailed         = errors.MustNewCode("catalogfs.io_failed")
	ErrTableNotFound    = errors.MustNewCode("catalogfs.table_not_found")
	ErrCorruptedCatalog = errors.MustNewCode("catalogfs.corrupted_catalog")
)

const (
	metadataDirName = "metadata"
	dataDirName     = "data"
	versionHintName = "version-hint.text"
	filePermissions = 0644
	dirPermissions  = 0755
)

// Catalog is a filesystem-backed Iceberg catalog rooted at a warehouse
// directory; one subdirectory per table.
type Catalog struct {
	warehouseRoot string
	logger        zerolog.Logger
}

// New returns a Catalog rooted at warehouseRoot.
func New(warehouseRoot string, logger zerolog.Logger) *Catalog {
	return &Catalog{warehouseRoot: warehouseRoot, logger: logger}
}

// TablePath returns the absolute path of a table's directory.
func (c *Catalog) TablePath(name string) string {
	return filepath.Join(c.warehouseRoot, name)
}

func (c *Catalog) metadataDir(name string) string {
	return filepath.Join(c.TablePath(name), metadataDirName)
}

func (c *Catalog) dataDir(name string) string {
	return filepath.Join(c.TablePath(name), dataDirName)
}

// Initialize creates <warehouse>/<table>/metadata and /data and returns
// the table's path. Idempotent: an already-initialized table is left
// untouched.
func (c *Catalog) Initialize(name string) (string, error) {
	tablePath := c.TablePath(name)
	if err := os.MkdirAll(c.metadataDir(name), dirPermissions); err != nil {
		return "", errors.New(ErrIOFailed, "failed to create metadata directory", err).AddContext("table", name)
	}
	if err := os.MkdirAll(c.dataDir(name), dirPermissions); err != nil {
		return "", errors.New(ErrIOFailed, "failed to create data directory", err).AddContext("table", name)
	}
	return tablePath, nil
}

// Commit is the sole mutation point for a table's metadata history. It
// reads the current version-hint (if any), writes v{N+1}.metadata.json,
// then atomically repoints version-hint.text at N+1 via a temp-file
// rename. Returns the new version number.
func (c *Catalog) Commit(name string, metadata *iceschema.TableMetadata) (int, error) {
	current, err := c.currentVersion(name)
	if err != nil {
		return 0, err
	}
	next := current + 1

	metadataPath := filepath.Join(c.metadataDir(name), fmt.Sprintf("v%d.metadata.json", next))
	raw, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return 0, errors.New(ErrIOFailed, "failed to marshal table metadata", err).AddContext("table", name)
	}
	if err := os.WriteFile(metadataPath, raw, filePermissions); err != nil {
		return 0, errors.New(ErrIOFailed, "failed to write metadata file", err).AddContext("table", name)
	}

	if err := c.writeVersionHint(name, next); err != nil {
		return 0, err
	}

	c.logger.Info().Str("table", name).Int("version", next).Msg("committed table metadata")
	return next, nil
}

// writeVersionHint writes the new hint to a uniquely-named temp file and
// renames it over version-hint.text in one filesystem operation:
// cancellation before the rename leaves the prior hint observable.
func (c *Catalog) writeVersionHint(name string, version int) error {
	hintPath := filepath.Join(c.metadataDir(name), versionHintName)
	tempPath := hintPath + strconv.Itoa(rand.Int())

	if err := os.WriteFile(tempPath, []byte(strconv.Itoa(version)), filePermissions); err != nil {
		return errors.New(ErrIOFailed, "failed to write version-hint temp file", err).AddContext("table", name)
	}
	if err := os.Rename(tempPath, hintPath); err != nil {
		os.Remove(tempPath)
		return errors.New(ErrIOFailed, "failed to rename version-hint into place", err).AddContext("table", name)
	}
	return nil
}

// currentVersion reads version-hint.text, returning 0 if the table has
// never been committed.
func (c *Catalog) currentVersion(name string) (int, error) {
	hintPath := filepath.Join(c.metadataDir(name), versionHintName)
	raw, err := os.ReadFile(hintPath)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.New(ErrIOFailed, "failed to read version-hint", err).AddContext("table", name)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, errors.New(ErrCorruptedCatalog, "version-hint does not contain a valid integer", err).AddContext("table", name)
	}
	return n, nil
}

// LoadTable reads version-hint.text, parses N, and loads
// v{N}.metadata.json. Returns (nil, nil) if the hint is absent, and also
// if the hint is not a valid integer or the metadata file it names is
// missing (both logged as a warning, a corruption signal). Any other read
// failure, or metadata JSON that does not parse, returns an error.
func (c *Catalog) LoadTable(name string) (*iceschema.TableMetadata, error) {
	hintPath := filepath.Join(c.metadataDir(name), versionHintName)
	raw, err := os.ReadFile(hintPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(ErrIOFailed, "failed to read version-hint", err).AddContext("table", name)
	}

	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		c.logger.Warn().Str("table", name).Msg("version-hint does not contain a valid integer")
		return nil, nil
	}

	metadataPath := filepath.Join(c.metadataDir(name), fmt.Sprintf("v%d.metadata.json", n))
	body, err := os.ReadFile(metadataPath)
	if os.IsNotExist(err) {
		c.logger.Warn().Str("table", name).Str("metadata_path", metadataPath).Msg("version-hint references missing metadata file")
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(ErrIOFailed, "failed to read metadata file", err).AddContext("table", name)
	}

	var metadata iceschema.TableMetadata
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, errors.New(ErrCorruptedCatalog, "failed to parse table metadata json", err).AddContext("table", name)
	}
	return &metadata, nil
}

// MetadataPathForVersion resolves the absolute path of a past commit's
// v{N}.metadata.json, for time-travel reads.
func (c *Catalog) MetadataPathForVersion(name string, version int) string {
	return filepath.Join(c.metadataDir(name), fmt.Sprintf("v%d.metadata.json", version))
}

// Exists reports whether a table directory has been initialized.
func (c *Catalog) Exists(name string) bool {
	_, err := os.Stat(c.TablePath(name))
	return err == nil
}
