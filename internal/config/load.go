package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/harvest/internal/crop"
)

//go:embed schema.cue
var schemaSource string

// Load reads, validates and compiles the document at path.
func Load(path string) (*crop.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, &LoadError{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("config not found: %s", path),
				Err:     err,
			}
		}
		return nil, &LoadError{
			Code:    ErrCodeReadFailed,
			Message: fmt.Sprintf("failed to read %s: %v", path, err),
			Err:     err,
		}
	}
	return Parse(path, data)
}

// Parse validates and compiles a document. The filename extension selects
// the syntax: .yaml/.yml and .cue are accepted, anything else is JSON.
func Parse(filename string, data []byte) (*crop.Catalog, error) {
	doc, err := Decode(filename, data)
	if err != nil {
		return nil, err
	}
	return Compile(doc)
}

// Decode validates data against the schema and decodes it with defaults
// applied. It does not check identifiers or handler names; see Compile.
func Decode(filename string, data []byte) (Document, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return Document{}, fromCUE(ErrCodeGeneric, schema.Err())
	}

	raw, err := build(ctx, filename, data)
	if err != nil {
		return Document{}, err
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(raw)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Document{}, fromCUE(ErrCodeBuildFailed, err)
	}

	var doc Document
	if err := v.Decode(&doc); err != nil {
		return Document{}, fromCUE(ErrCodeBuildFailed, err)
	}
	return doc, nil
}

func build(ctx *cue.Context, filename string, data []byte) (cue.Value, error) {
	var v cue.Value
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".cue":
		v = ctx.CompileBytes(data, cue.Filename(filename))
	case ".yaml", ".yml":
		f, err := cueyaml.Extract(filename, data)
		if err != nil {
			return cue.Value{}, fromCUE(ErrCodeLoadFailed, err)
		}
		v = ctx.BuildFile(f, cue.Filename(filename))
	default:
		expr, err := cuejson.Extract(filename, data)
		if err != nil {
			return cue.Value{}, fromCUE(ErrCodeLoadFailed, err)
		}
		v = ctx.BuildExpr(expr, cue.Filename(filename))
	}
	if v.Err() != nil {
		return cue.Value{}, fromCUE(ErrCodeLoadFailed, v.Err())
	}
	return v, nil
}
