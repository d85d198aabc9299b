package sources

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"strings"

	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/errors"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// Deplist reads a plain list of requirements, one per line. Blank lines and
// "#" comments are ignored; every other line must be a valid requirement.
var Deplist = &deps.SourceType{
	Name:        "deplist",
	Description: "plain text file with one requirement per line",
	Usage:       "PATH",
	MinArgs:     1,
	MaxArgs:     1,
	CheckArgs:   nonEmptyArgs,
	Resolver:    deps.ResolverFunc(resolveDeplist),
}

func resolveDeplist(ctx context.Context, args []string, opts deps.Options) ([]pep508.Requirement, error) {
	data, err := readFile(opts.Path(args[0]))
	if err != nil {
		return nil, err
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := stripComment(sc.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "read %s", args[0])
	}
	return deps.ParseAll(args[0], lines)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "read %s", path)
	}
	return data, nil
}

// stripComment removes a "#" comment that starts the line or follows
// whitespace, and trims the result.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '#' && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t') {
			line = line[:i]
			break
		}
	}
	return strings.TrimSpace(line)
}
