package sources

import (
	"context"
	"strings"

	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// PipReqfile reads a pip requirements file. Only PEP 508 requirements are
// kept: options such as -r, -c, -e or --index-url, bare URLs and local paths
// are dropped with a warning. Per-requirement options (--hash=...) are
// stripped.
var PipReqfile = &deps.SourceType{
	Name:        "pip_reqfile",
	Description: "pip requirements file (PEP 508 lines only)",
	Usage:       "PATH",
	MinArgs:     1,
	MaxArgs:     1,
	CheckArgs:   nonEmptyArgs,
	Resolver:    deps.ResolverFunc(resolvePipReqfile),
}

func resolvePipReqfile(ctx context.Context, args []string, opts deps.Options) ([]pep508.Requirement, error) {
	data, err := readFile(opts.Path(args[0]))
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range joinContinuations(string(data)) {
		line = stripComment(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "-") {
			opts.Warn("%s: skipping option %q", args[0], line)
			continue
		}
		lines = append(lines, stripOptions(line))
	}
	return bestEffort(lines, args[0], opts), nil
}

// joinContinuations splits text into logical lines, joining lines that end
// with a backslash with the next one.
func joinContinuations(text string) []string {
	var (
		lines []string
		cur   strings.Builder
	)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.HasSuffix(line, `\`) {
			cur.WriteString(strings.TrimSuffix(line, `\`))
			continue
		}
		cur.WriteString(line)
		lines = append(lines, cur.String())
		cur.Reset()
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// stripOptions cuts a requirement line at its first " --option".
func stripOptions(line string) string {
	if i := strings.Index(line, " --"); i > 0 {
		return strings.TrimSpace(line[:i])
	}
	return line
}
