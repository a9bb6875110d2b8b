package multipartext

import (
	"fmt"
	"io"
)

// part is one segment of a concatenated body.
type part struct {
	r    io.ReadSeeker
	size int64
}

// concat reads its parts back to back. Every Read seeks the current part, so the parts must not be read
// elsewhere.
type concat struct {
	parts  []part
	offset int64
	size   int64
}

// Concat returns a ReadSeeker over readers laid out back to back. Sizes are determined by seeking each reader to
// its end.
func Concat(readers ...io.ReadSeeker) (io.ReadSeeker, error) {
	c := &concat{}
	for _, r := range readers {
		n, err := r.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, err
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		c.parts = append(c.parts, part{r: r, size: n})
		c.size += n
	}
	return c, nil
}

func (c *concat) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += c.offset
	case io.SeekEnd:
		offset += c.size
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}

	if offset < 0 || offset > c.size {
		return 0, fmt.Errorf("seek: offset %d out of range [0, %d]", offset, c.size)
	}

	c.offset = offset
	return offset, nil
}

func (c *concat) Read(p []byte) (int, error) {
	var start int64
	for _, pt := range c.parts {
		if c.offset >= start+pt.size {
			start += pt.size
			continue
		}

		if _, err := pt.r.Seek(c.offset-start, io.SeekStart); err != nil {
			return 0, err
		}
		n, err := pt.r.Read(p)
		c.offset += int64(n)
		if err == io.EOF {
			if n == 0 {
				// the part shrank after its size was taken
				return 0, io.ErrUnexpectedEOF
			}
			err = nil
		}
		return n, err
	}

	return 0, io.EOF
}

// Len returns the number of unread bytes.
func (c *concat) Len() int {
	return int(c.size - c.offset)
}
