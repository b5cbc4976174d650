package ioutil

import (
	"io"
)

// CountingReader counts the bytes read through it.
type CountingReader struct {
	io.Reader
	n int64
}

func NewCountingReader(reader io.Reader) *CountingReader {
	return &CountingReader{Reader: reader}
}

func (c *CountingReader) Read(p []byte) (n int, err error) {
	n, err = c.Reader.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *CountingReader) Count() int64 {
	return c.n
}
