package enginelog

import (
	"bytes"
	"os"
)

// OutputSplitter routes error and fatal records to stderr and everything
// else to stdout, so a supervising process can separate error streams
// without parsing log bodies (adapted from common/logging.go).
type OutputSplitter struct{}

func (s *OutputSplitter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("level=error")) || bytes.Contains(p, []byte("level=fatal")) ||
		bytes.Contains(p, []byte(`"level":"error"`)) || bytes.Contains(p, []byte(`"level":"fatal"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}
