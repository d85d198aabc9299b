package metadata

import (
	"archive/zip"
	"io"
	"path"
	"strings"

	"github.com/matzehuels/pyproject/pkg/errors"
)

// ParseWheelName splits a wheel file name of the form
// {distribution}-{version}(-{build tag})?-{python}-{abi}-{platform}.whl.
func ParseWheelName(name string) (dist, version string, err error) {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	stem, ok := strings.CutSuffix(base, ".whl")
	parts := strings.Split(stem, "-")
	if !ok || (len(parts) != 5 && len(parts) != 6) || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New(errors.ErrCodeInvalidInput,
			"invalid wheel filename %q, expected {distribution}-{version}(-{build tag})?-{python tag}-{abi tag}-{platform tag}.whl", base)
	}
	return parts[0], parts[1], nil
}

// DistInfoDir returns the name of the .dist-info directory of a wheel.
func DistInfoDir(wheelName string) (string, error) {
	dist, version, err := ParseWheelName(wheelName)
	if err != nil {
		return "", err
	}
	return dist + "-" + version + ".dist-info", nil
}

// ReadWheelMetadata returns the raw METADATA file of the wheel at wheelPath.
func ReadWheelMetadata(wheelPath string) ([]byte, error) {
	distInfo, err := DistInfoDir(wheelPath)
	if err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(wheelPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "read wheel %s", wheelPath)
	}
	defer zr.Close()

	want := distInfo + "/" + FileName
	for _, f := range zr.File {
		if f.Name != want {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeResolution, err, "open %s in %s", want, wheelPath)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeResolution, err, "read %s in %s", want, wheelPath)
		}
		return data, nil
	}
	return nil, errors.New(errors.ErrCodeResolution, "wheel %s has no %s", wheelPath, want)
}
