package sources

import (
	"bytes"
	"context"

	"github.com/matzehuels/pyproject/pkg/backend"
	"github.com/matzehuels/pyproject/pkg/deps"
	"github.com/matzehuels/pyproject/pkg/metadata"
	"github.com/matzehuels/pyproject/pkg/pep508"
)

// Metadata reads Requires-Dist from core metadata. The metadata comes from
// a METADATA/PKG-INFO file or a wheel when a path is given, otherwise from
// the build backend. With an extra, only requirements whose marker tests
// for that extra are kept.
var Metadata = &deps.SourceType{
	Name:        "metadata",
	Description: "Requires-Dist of the project's core metadata",
	Usage:       "[PATH|- [EXTRA]]",
	MaxArgs:     2,
	CheckArgs:   nonEmptyArgs,
	Resolver:    deps.ResolverFunc(resolveMetadata),
}

func resolveMetadata(ctx context.Context, args []string, opts deps.Options) ([]pep508.Requirement, error) {
	md, err := loadMetadata(ctx, args, opts)
	if err != nil {
		return nil, err
	}
	reqs, err := deps.ParseAll("Requires-Dist of "+md.Name(), md.RequiresDist())
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return reqs, nil
	}

	extra := args[1]
	var out []pep508.Requirement
	for _, req := range reqs {
		if req.Marker != nil && req.Marker.ReferencesExtra(extra) {
			out = append(out, req)
		}
	}
	return out, nil
}

func loadMetadata(ctx context.Context, args []string, opts deps.Options) (*metadata.Metadata, error) {
	if len(args) > 0 && args[0] != "-" {
		return metadata.ParseFile(opts.Path(args[0]))
	}
	caller, err := opts.Caller()
	if err != nil {
		return nil, err
	}
	opts.Logger("preparing metadata with the build backend")
	data, err := backend.PrepareMetadata(ctx, caller, nil)
	if err != nil {
		return nil, err
	}
	return metadata.Parse(bytes.NewReader(data))
}
