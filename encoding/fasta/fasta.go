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

// Package fasta reads FASTA files. FASTA files consist of a number of named
// sequences that may be interrupted by newlines. For example:
//
// >MN908947 Wuhan-Hu-1
// ACGTAC
// GAGGAC
// GCG
// >query.1
// ACGT
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'. Any text after a space is ignored, so
// '>MN908947 Wuhan-Hu-1' becomes 'MN908947'.
package fasta

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/pkg/errors"
)

const (
	bufferInitSize = 64 * 1024
	bufferMaxSize  = 1024 * 1024 * 300 // 300 MB
)

// Record is one named sequence.
type Record struct {
	// Index is the 0-based position of the record in the input.
	Index int
	Name  string
	Seq   string
}

// Scanner reads records one at a time. Its usage is similar to bufio.Scanner:
//
//	sc := fasta.NewScanner(r)
//	for sc.Scan() {
//		rec := sc.Record()
//		...
//	}
//	if err := sc.Err(); err != nil { ... }
type Scanner struct {
	sc *bufio.Scanner
	// header is the pending header line without '>', valid if hasHeader.
	header    string
	hasHeader bool
	eof       bool
	rec       Record
	n         int
	err       error
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, bufferInitSize), bufferMaxSize)
	return &Scanner{sc: sc}
}

func seqName(header string) string {
	if i := strings.IndexAny(header, " \t"); i >= 0 {
		return header[:i]
	}
	return header
}

// line returns the next non-empty line.
func (s *Scanner) line() (string, bool) {
	for s.sc.Scan() {
		if line := strings.TrimSpace(s.sc.Text()); len(line) > 0 {
			return line, true
		}
	}
	if err := s.sc.Err(); err != nil {
		s.err = errors.Wrap(err, "couldn't read FASTA data")
	}
	s.eof = true
	return "", false
}

// Scan reads the next record. It returns false at the end of input or on
// error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	if !s.hasHeader {
		if s.eof {
			return false
		}
		line, ok := s.line()
		if !ok {
			return false
		}
		if line[0] != '>' {
			s.err = errors.Errorf("malformed FASTA data: sequence %.20q before the first header", line)
			return false
		}
		s.header, s.hasHeader = line[1:], true
	}
	header := s.header
	s.hasHeader = false
	var seq strings.Builder
	for !s.eof {
		line, ok := s.line()
		if !ok {
			break
		}
		if line[0] == '>' {
			s.header, s.hasHeader = line[1:], true
			break
		}
		seq.WriteString(line)
	}
	if s.err != nil {
		return false
	}
	s.rec = Record{Index: s.n, Name: seqName(header), Seq: seq.String()}
	s.n++
	return true
}

// Record returns the record read by the last successful call to Scan.
func (s *Scanner) Record() Record { return s.rec }

// Err returns the first error encountered by the Scanner.
func (s *Scanner) Err() error { return s.err }

// ReadAll reads every record of r.
func ReadAll(r io.Reader) ([]Record, error) {
	var recs []Record
	sc := NewScanner(r)
	for sc.Scan() {
		recs = append(recs, sc.Record())
	}
	return recs, sc.Err()
}

// ReadOne reads a file holding exactly one record, such as a reference
// sequence.
func ReadOne(r io.Reader) (Record, error) {
	sc := NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return Record{}, err
		}
		return Record{}, errors.New("malformed FASTA data: no sequence found")
	}
	rec := sc.Record()
	if sc.Scan() {
		return Record{}, errors.Errorf("malformed FASTA data: expected one sequence, found %s and %s", rec.Name, sc.Record().Name)
	}
	return rec, sc.Err()
}

// Open opens a possibly compressed FASTA file. The caller must call the
// returned close function when done.
func Open(ctx context.Context, path string) (io.Reader, func() error, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "fasta open %s", path)
	}
	var r io.Reader = f.Reader(ctx)
	if u, _ := compress.NewReaderPath(r, f.Name()); u != nil {
		r = u
	}
	return r, func() error { return f.Close(ctx) }, nil
}

// ReadOnePath reads the single record of the FASTA file at path.
func ReadOnePath(ctx context.Context, path string) (Record, error) {
	r, closer, err := Open(ctx, path)
	if err != nil {
		return Record{}, err
	}
	rec, err := ReadOne(r)
	if cerr := closer(); err == nil {
		err = cerr
	}
	return rec, errors.Wrapf(err, "fasta %s", path)
}
