package schema

import (
	"context"
	"embed"
	"io/fs"
)

//go:embed testdata/*.yaml
var testdata embed.FS

// TestRegistry returns the v10/v11 fixture schema used by tests across the
// module. It panics on malformed fixtures.
func TestRegistry() *Registry {
	sub, err := fs.Sub(testdata, "testdata")
	if err != nil {
		panic(err)
	}
	reg, err := NewFSSource(sub, "testdata").Load(context.Background())
	if err != nil {
		panic(err)
	}
	return reg
}
