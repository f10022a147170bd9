package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadLinks returns the trimmed, non-blank lines of r in order.
func ReadLinks(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var links []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		links = append(links, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read links: %w", err)
	}
	return links, nil
}

// ReadLinksFile reads links from the file at path.
func ReadLinksFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	defer f.Close()
	return ReadLinks(f)
}
