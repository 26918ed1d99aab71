// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/phyloplace/tree"
	"github.com/klauspost/compress/gzip"
)

// openReader opens path for reading, decompressing it if its name says so.
// The caller must call the returned close function.
func openReader(ctx context.Context, path string) (io.Reader, func() error, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	var r io.Reader = f.Reader(ctx)
	if u, _ := compress.NewReaderPath(r, f.Name()); u != nil {
		r = u
	}
	return r, func() error { return f.Close(ctx) }, nil
}

// outputFile is a file being written, gzip-compressed if its name ends with
// ".gz".
type outputFile struct {
	io.Writer
	f  file.File
	gz *gzip.Writer
}

func createWriter(ctx context.Context, path string) (*outputFile, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	out := &outputFile{Writer: f.Writer(ctx), f: f}
	if strings.HasSuffix(path, ".gz") {
		out.gz = gzip.NewWriter(out.Writer)
		out.Writer = out.gz
	}
	return out, nil
}

// Close flushes and closes the file.
func (o *outputFile) Close(ctx context.Context) error {
	e := errors.Once{}
	if o.gz != nil {
		e.Set(o.gz.Close())
	}
	e.Set(o.f.Close(ctx))
	return e.Err()
}

func readTree(ctx context.Context, path string) (*tree.Tree, error) {
	r, closer, err := openReader(ctx, path)
	if err != nil {
		return nil, err
	}
	t, err := tree.ReadJSON(r)
	if cerr := closer(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, errors.E(err, "read tree", path)
	}
	return t, nil
}

// writeOutput creates path and writes it with fn.
func writeOutput(ctx context.Context, path string, fn func(w io.Writer) error) error {
	out, err := createWriter(ctx, path)
	if err != nil {
		return err
	}
	e := errors.Once{}
	e.Set(fn(out))
	e.Set(out.Close(ctx))
	if err := e.Err(); err != nil {
		return errors.E(err, "write", path)
	}
	return nil
}
