package gelqc

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

// sniffLen is how much of a stream is peeked to recognise its encoding.
const sniffLen = 512

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeNoCompression:
		return "plain"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZ:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	}
	return "invalid"
}

// Checked longest first so that no signature shadows another.
var byteCodeSigs = []struct {
	dt  DataType
	sig []byte
}{
	{DataTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{DataTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{DataTypeGzip, []byte{0x1f, 0x8b, 0x08}},
	{DataTypeBZip2, []byte{0x42, 0x5a, 0x68}},
	{DataTypeZ, []byte{0x78}},
}

// DetectDataType matches the leading bytes of a stream against known
// compression signatures. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(head []byte) DataType {
	for _, s := range byteCodeSigs {
		if bytes.HasPrefix(head, s.sig) {
			if s.dt == DataTypeZ && !zlibHeader(head) {
				continue
			}
			return s.dt
		}
	}

	return DataTypeNoCompression
}

// zlibHeader reports whether head opens with a deflate (CM 8) zlib header
// that has no preset dictionary and a valid FCHECK.
func zlibHeader(head []byte) bool {
	if len(head) < 2 || head[0]&0x0f != 8 || head[1]&0x20 != 0 {
		return false
	}
	return (uint16(head[0])<<8|uint16(head[1]))%31 == 0
}

// inflates reports whether head decodes as the start of a zlib stream. Two
// printable bytes such as "x^" pass the header check on their own.
func inflates(head []byte) bool {
	zr, err := zlib.NewReader(bytes.NewReader(head))
	if err != nil {
		return false
	}
	_, err = io.Copy(io.Discard, zr)
	return err == nil || err == io.ErrUnexpectedEOF
}

// MaybeDecompress sniffs r and, when it holds a compressed stream, returns a
// reader over the decompressed bytes. A zip archive yields its first member.
// Closing the result does not close r.
func MaybeDecompress(r io.Reader) (io.ReadCloser, DataType, error) {
	br := bufio.NewReader(r)

	// Peek returns what it has along with io.EOF for short inputs.
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		return nil, DataTypeInvalid, pfx.Err(err)
	}

	dt := DetectDataType(head)
	if dt == DataTypeZ && !inflates(head) {
		dt = DataTypeNoCompression
	}
	switch dt {
	case DataTypeGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, dt, pfx.Err(err)
		}
		return gz, dt, nil
	case DataTypeZip:
		zr := zipstream.NewReader(br)
		if _, err := zr.Next(); err != nil {
			return nil, dt, pfx.Err(err)
		}
		return &readCloserFaker{zr}, dt, nil
	case DataTypeBZip2:
		return &readCloserFaker{bzip2.NewReader(br)}, dt, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, dt, pfx.Err(err)
		}
		return &readCloserFaker{reader}, dt, nil
	case DataTypeZ:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, dt, pfx.Err(err)
		}
		return zr, dt, nil
	}

	return &readCloserFaker{br}, dt, nil
}

// readCloserFaker "upgrades" readers that don't need to be closed
type readCloserFaker struct {
	io.Reader
}

func (c *readCloserFaker) Close() error {
	return nil
}
