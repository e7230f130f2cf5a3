package runner

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// MaxLineBytes bounds a single output line. Longer lines are dropped rather
// than buffered.
const MaxLineBytes = 1 << 20

func drainLines(r io.Reader, max int, emit func(string), tooLong func()) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var (
		buf      []byte
		overflow bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		if !overflow {
			if len(buf)+len(chunk) > max+1 {
				overflow = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err == nil || overflow || len(buf) > 0 {
			if overflow {
				tooLong()
			} else {
				emit(strings.TrimRight(string(buf), "\r\n"))
			}
			buf = buf[:0]
			overflow = false
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
