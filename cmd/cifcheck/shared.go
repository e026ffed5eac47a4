package main

import (
	"os"

	"github.com/odcambc/libcifpp"
)

// sharedFactory is reused across subcommand invocations within a single
// process run, so a dictionary is compiled once and served from its cache
// afterwards (spec.md §5: "the one process-wide shared structure"). Each
// openWithValidator call with --dictionary-dir still starts its own
// directory watcher.
var sharedFactory = cif.NewValidatorFactory()

// openWithValidator loads path as a CIF file and, unless dictionary is
// empty, attaches a Validator compiled from it through a resource
// provider chain: an on-disk directory (if opts.dictionaryDir is set,
// watched with fsnotify so edits invalidate the cached Validator) falling
// back to the dictionaries embedded in the cifcheck binary.
func openWithValidator(path string, opts *cliOptions) (*cif.File, error) {
	f := cif.NewFile()
	f.Logger = opts.logger

	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	if err := f.Load(in); err != nil {
		return nil, err
	}

	if opts.dictionary == "" {
		return f, nil
	}

	var provider cif.ResourceProvider = cif.EmbeddedResourceProvider{}
	if opts.dictionaryDir != "" {
		dirProvider, err := cif.NewDirectoryResourceProvider(opts.dictionaryDir, opts.logger)
		if err != nil {
			return nil, err
		}
		dirProvider.OnChange(func(name string) { sharedFactory.Invalidate(name) })
		provider = cif.ChainResourceProvider{dirProvider, cif.EmbeddedResourceProvider{}}
	}

	v, err := sharedFactory.GetFromResource(provider, opts.dictionary)
	if err != nil {
		return nil, err
	}
	v.Strict = opts.strict
	f.SetValidator(v)
	return f, nil
}
