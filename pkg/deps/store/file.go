package store

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/observability"
)

// DefaultFileName is the store file used when none is configured.
const DefaultFileName = "pyproject_deps.json"

// Format is an on-disk encoding of the store.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the format from the file extension; anything other
// than .yaml or .yml is JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Exists reports whether a store file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load reads and validates the store at path, migrating older layouts.
// A missing file is a NOT_FOUND error; anything malformed is CONFIG_ERROR.
func Load(ctx context.Context, path string, known TypeChecker) (s *Store, err error) {
	defer func() {
		groups := 0
		if s != nil {
			groups = len(s.Groups)
		}
		observability.Store().OnLoad(ctx, path, groups, err)
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "deps file %s doesn't exist", path)
		}
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "read %s", path)
	}
	s, err = Decode(data, FormatForPath(path), known)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "invalid deps file %s", path)
	}
	return s, nil
}

// Decode parses and validates an encoded store.
func Decode(data []byte, format Format, known TypeChecker) (*Store, error) {
	var (
		root *node
		err  error
	)
	switch format {
	case FormatYAML:
		root, err = decodeYAML(data)
	default:
		root, err = decodeJSON(data)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "decode %s", format)
	}

	root, _, err = migrate(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "migrate")
	}

	d := &schemaDecoder{}
	s := d.decodeStore(root)
	if err := d.errs.ErrorOrNil(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "schema")
	}
	if err := s.Validate(known); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "validate")
	}
	return s, nil
}

// Encode writes s to w in the given format.
func Encode(w io.Writer, s *Store, format Format) error {
	root := encodeStore(s)
	if format == FormatYAML {
		return encodeYAML(w, root)
	}
	return encodeJSON(w, root)
}

// Save validates s and writes it to path atomically: the data goes to a
// temporary file in the same directory which is then renamed over path, so
// a failure never leaves a partially written store behind.
func Save(ctx context.Context, path string, s *Store, known TypeChecker) (err error) {
	defer func() {
		observability.Store().OnSave(ctx, path, len(s.Groups), err)
	}()

	if err := s.Validate(known); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "refusing to save invalid store")
	}

	var buf bytes.Buffer
	if err := Encode(&buf, s, FormatForPath(path)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode store")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "create temporary file in %s", dir)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeConfig, err, "write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeConfig, err, "sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "close %s", tmpName)
	}
	if info, statErr := os.Stat(path); statErr == nil {
		_ = os.Chmod(tmpName, info.Mode().Perm())
	} else {
		_ = os.Chmod(tmpName, 0o644)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "replace %s", path)
	}
	return nil
}
