//go:build !linux && !darwin

package mmap

import (
	"io"
	"os"
)

func mapFile(file *os.File, size int) ([]byte, bool, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(file, data); err != nil {
		return nil, false, err
	}
	return data, false, nil
}

func unmapFile([]byte) error {
	return nil
}
