package rsgrpc

import (
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"google.golang.org/grpc/encoding"
)

// Compressor names accepted by grpc.UseCompressor on calls made through
// this package. Both are registered with the shared grpc/encoding registry
// at init time.
const (
	GzipName   = "gzip"
	SnappyName = "snappy"
)

func init() {
	encoding.RegisterCompressor(&gzipCompressor{})
	encoding.RegisterCompressor(&snappyCompressor{})
}

// gzipCompressor is a pooled gzip codec for gRPC message payloads.
type gzipCompressor struct {
	pool sync.Pool
}

func (c *gzipCompressor) Name() string { return GzipName }

func (c *gzipCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	z, ok := c.pool.Get().(*gzip.Writer)
	if !ok {
		z = gzip.NewWriter(w)
	} else {
		z.Reset(w)
	}
	return &pooledGzipWriter{Writer: z, pool: &c.pool}, nil
}

func (c *gzipCompressor) Decompress(r io.Reader) (io.Reader, error) {
	return gzip.NewReader(r)
}

// pooledGzipWriter returns its gzip.Writer to the pool on Close.
type pooledGzipWriter struct {
	*gzip.Writer
	pool *sync.Pool
}

func (w *pooledGzipWriter) Close() error {
	err := w.Writer.Close()
	w.pool.Put(w.Writer)
	return err
}

// snappyCompressor is a snappy stream codec for gRPC message payloads.
type snappyCompressor struct{}

func (c *snappyCompressor) Name() string { return SnappyName }

func (c *snappyCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return snappy.NewBufferedWriter(w), nil
}

func (c *snappyCompressor) Decompress(r io.Reader) (io.Reader, error) {
	return snappy.NewReader(r), nil
}
