package loader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// errTooManyRejects aborts the stream once the malformed-line tolerance is
// exceeded.
var errTooManyRejects = errors.New("malformed line tolerance exceeded")

// csvStream filters a delimited source file into canonical CSV suitable
// for COPY ... FROM STDIN (FORMAT csv):
//
//   - parses with the entry's field delimiter,
//   - skips the first physical line when the file carries a header,
//   - drops malformed records, up to maxRejects of them, before aborting,
//   - re-encodes accepted records as comma-separated CSV.
//
// Each physical line is parsed on its own, so a malformed line (stray
// quote, wrong field count) rejects exactly that line and the stream
// resumes at the next one. The expected field count is fixed by the first
// record that parses (header included when present); later records with a
// different count are rejects.
type csvStream struct {
	src        *bufio.Reader
	delimiter  rune
	buf        bytes.Buffer
	enc        *csv.Writer
	hasHeader  bool
	headerDone bool
	maxRejects int
	wantFields int

	line     int
	rejected int
	rows     int64
	err      error
}

func newCSVStream(r io.Reader, delimiter rune, hasHeader bool, maxRejects int) *csvStream {
	s := &csvStream{
		src:        bufio.NewReader(r),
		delimiter:  delimiter,
		hasHeader:  hasHeader,
		maxRejects: maxRejects,
	}
	s.enc = csv.NewWriter(&s.buf)
	return s
}

// parseLine parses one physical line as a single delimited record.
func (s *csvStream) parseLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = s.delimiter
	return r.Read()
}

// reject counts one malformed line against the tolerance and latches the
// abort error once the tolerance is exceeded.
func (s *csvStream) reject() error {
	s.rejected++
	if s.rejected > s.maxRejects {
		s.err = fmt.Errorf("%w: %d malformed lines (limit %d), last at line %d",
			errTooManyRejects, s.rejected, s.maxRejects, s.line)
		return s.err
	}
	return nil
}

// Read implements io.Reader. Errors other than io.EOF abort the COPY on
// the server side and surface from pgconn as the copy failure cause.
func (s *csvStream) Read(p []byte) (int, error) {
	for s.buf.Len() == 0 {
		if s.err != nil {
			return 0, s.err
		}

		line, rerr := s.src.ReadString('\n')
		if rerr != nil && rerr != io.EOF {
			s.err = rerr
			return 0, s.err
		}
		if line == "" && rerr == io.EOF {
			s.err = io.EOF
			return 0, io.EOF
		}
		s.line++

		// The header line is skipped whatever its content, so a
		// malformed header does not count against tolerance. When it
		// does parse, it fixes the expected field count.
		if s.hasHeader && !s.headerDone {
			s.headerDone = true
			if record, err := s.parseLine(line); err == nil {
				s.wantFields = len(record)
			}
			continue
		}
		s.headerDone = true

		if strings.TrimRight(line, "\r\n") == "" {
			continue
		}

		record, err := s.parseLine(line)
		if err != nil {
			if err := s.reject(); err != nil {
				return 0, err
			}
			continue
		}
		if s.wantFields == 0 {
			s.wantFields = len(record)
		} else if len(record) != s.wantFields {
			if err := s.reject(); err != nil {
				return 0, err
			}
			continue
		}

		if err := s.enc.Write(record); err != nil {
			s.err = err
			return 0, err
		}
		s.enc.Flush()
		if err := s.enc.Error(); err != nil {
			s.err = err
			return 0, err
		}
		s.rows++
	}
	return s.buf.Read(p)
}

// Rows returns the number of data records emitted so far.
func (s *csvStream) Rows() int64 { return s.rows }

// Rejected returns the number of malformed lines dropped so far.
func (s *csvStream) Rejected() int { return s.rejected }

// RejectLimitExceeded reports whether the stream aborted because the
// malformed-line tolerance was exceeded.
func (s *csvStream) RejectLimitExceeded() bool {
	return errors.Is(s.err, errTooManyRejects)
}
