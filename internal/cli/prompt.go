package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fpang/photo-uploader/internal/catalog"
)

// PromptForAlbum prints a numbered album list to out and reads a choice from
// in. Entering nothing keeps current, which may be empty.
func PromptForAlbum(albums catalog.List, current string, in io.Reader, out io.Writer) (string, error) {
	for i, a := range albums {
		marker := " "
		if a.Name == current {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %2d) %s\n", marker, i+1, a.Name)
	}
	fmt.Fprintf(out, "Album [%s]: ", current)

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read choice: %w", err)
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return current, nil
	}

	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(albums) {
			return "", fmt.Errorf("choice %d out of range 1-%d", n, len(albums))
		}
		return albums[n-1].Name, nil
	}
	if a, ok := albums.Lookup(input); ok {
		return a.Name, nil
	}
	return "", fmt.Errorf("album %q not found", input)
}
