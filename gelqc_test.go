package gelqc

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = "name,conc,a280,a230\nS1,20,1.9,2.2\nS2,55,2.0,2.3\n"

func TestMaybeDecompress(t *testing.T) {
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write([]byte(table))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var zl bytes.Buffer
	zw := zlib.NewWriter(&zl)
	_, err = zw.Write([]byte(table))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	cases := []struct {
		name string
		in   []byte
		dt   DataType
	}{
		{"plain", []byte(table), DataTypeNoCompression},
		{"gzip", gz.Bytes(), DataTypeGzip},
		{"zlib", zl.Bytes(), DataTypeZ},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rc, dt, err := MaybeDecompress(bytes.NewReader(tc.in))
			require.NoError(t, err)
			defer rc.Close()

			assert.Equal(t, tc.dt, dt)
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, table, string(got))
		})
	}
}

func TestMaybeDecompressShortInput(t *testing.T) {
	rc, dt, err := MaybeDecompress(bytes.NewReader([]byte("a,b")))
	require.NoError(t, err)

	assert.Equal(t, DataTypeNoCompression, dt)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b", string(got))
}

func TestMaybeDecompressTextStartingWithX(t *testing.T) {
	// Both pairs pass the zlib FCHECK; the first also sets FDICT.
	for _, in := range []string{
		"x well,Sample,Conc,A260/280,A260/230\n1,S1,55,1.95,2.3\n",
		"x^ well,Sample,Conc,A260/280,A260/230\n1,S1,55,1.95,2.3\n",
	} {
		rc, dt, err := MaybeDecompress(bytes.NewReader([]byte(in)))
		require.NoError(t, err)

		assert.Equal(t, DataTypeNoCompression, dt, in)
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, in, string(got))
	}
}

func TestDetectDataType(t *testing.T) {
	assert.Equal(t, DataTypeXZ, DetectDataType([]byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}))
	assert.Equal(t, DataTypeZip, DetectDataType([]byte{0x50, 0x4b, 0x03, 0x04, 0, 0}))
	assert.Equal(t, DataTypeBZip2, DetectDataType([]byte("BZh91A")))
	assert.Equal(t, DataTypeNoCompression, DetectDataType([]byte("xylene")))
	assert.Equal(t, DataTypeNoCompression, DetectDataType([]byte("x well")))
	assert.Equal(t, DataTypeZ, DetectDataType([]byte{0x78, 0x9c, 0x4b}))
	assert.Equal(t, DataTypeNoCompression, DetectDataType(nil))
}

func TestDetermineDelimiter(t *testing.T) {
	tsv := []byte("name\tconc\ta280\ta230\nS1\t20\t1.9\t2.2\nS2\t55\t2.0\t2.3\nS3\t31\t1.8\t2.0\n")
	assert.Equal(t, '\t', DetermineDelimiter(tsv))

	csv := []byte("name,conc,a280,a230\nS1,20,1.9,2.2\nS2,55,2.0,2.3\nS3,31,1.8,2.0\n")
	assert.Equal(t, ',', DetermineDelimiter(csv))

	assert.Equal(t, ',', DetermineDelimiter(nil))
}

func TestSplitBucketPath(t *testing.T) {
	scheme, bucket, key, err := SplitBucketPath("gs://lab-bucket/runs/2026/plate.csv")
	require.NoError(t, err)
	assert.Equal(t, "gs", scheme)
	assert.Equal(t, "lab-bucket", bucket)
	assert.Equal(t, "runs/2026/plate.csv", key)

	scheme, bucket, key, err = SplitBucketPath("s3://gels/a.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"s3", "gels", "a.png"}, []string{scheme, bucket, key})

	_, _, _, err = SplitBucketPath("gs://only-bucket")
	assert.Error(t, err)

	_, _, _, err = SplitBucketPath("/tmp/plate.csv")
	assert.Error(t, err)

	assert.True(t, IsRemote("s3://x/y"))
	assert.False(t, IsRemote("plate.csv"))
}

func TestOpenerLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plate.csv")
	require.NoError(t, os.WriteFile(path, []byte(table), 0o644))

	o := &Opener{}
	defer o.Close()

	rc, err := o.Open(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, table, string(got))

	_, err = o.Open(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExpandHome(t *testing.T) {
	got, err := ExpandHome("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)

	got, err = ExpandHome("~/plates/a.csv")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "a.csv", filepath.Base(got))
}
