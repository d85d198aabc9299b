// Package metadata reads Python core metadata (METADATA and PKG-INFO files).
//
// Core metadata is an RFC 822 style header block; repeated fields such as
// Requires-Dist keep their order. Files can be read from disk or from the
// .dist-info directory of a wheel archive.
package metadata

import (
	"bytes"
	"io"
	"net/mail"
	"net/textproto"
	"os"
	"strings"

	"github.com/matzehuels/pyproject/pkg/errors"
)

// FileName is the name of the core metadata file inside a .dist-info directory.
const FileName = "METADATA"

// Metadata holds the parsed header fields of a core metadata file.
type Metadata struct {
	header textproto.MIMEHeader
	Body   string // Description given as message body, if any
}

// Parse parses core metadata from r.
func Parse(r io.Reader) (*Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "read metadata")
	}
	// A trailing blank line terminates the header block even when the
	// file has no body.
	msg, err := mail.ReadMessage(bytes.NewReader(append(data, '\n', '\n')))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "parse metadata")
	}
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "read metadata body")
	}
	return &Metadata{
		header: textproto.MIMEHeader(msg.Header),
		Body:   strings.TrimSpace(string(body)),
	}, nil
}

// ParseFile parses the metadata file at path. A path ending in ".whl" is
// read as a wheel archive.
func ParseFile(path string) (*Metadata, error) {
	if strings.HasSuffix(path, ".whl") {
		data, err := ReadWheelMetadata(path)
		if err != nil {
			return nil, err
		}
		return Parse(bytes.NewReader(data))
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "metadata file %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "open %s", path)
	}
	defer f.Close()
	return Parse(f)
}

// Get returns the first value of field, or "".
func (m *Metadata) Get(field string) string {
	return m.header.Get(field)
}

// Values returns every value of field in file order.
func (m *Metadata) Values(field string) []string {
	return m.header.Values(field)
}

// Name returns the project name.
func (m *Metadata) Name() string { return m.Get("Name") }

// Version returns the project version.
func (m *Metadata) Version() string { return m.Get("Version") }

// RequiresDist returns the Requires-Dist entries in file order.
func (m *Metadata) RequiresDist() []string { return m.Values("Requires-Dist") }

// ProvidesExtra returns the declared extras.
func (m *Metadata) ProvidesExtra() []string { return m.Values("Provides-Extra") }
