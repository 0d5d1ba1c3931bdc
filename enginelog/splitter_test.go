package enginelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputSplitterWritesReturnFullLength(t *testing.T) {
	splitter := &OutputSplitter{}

	tests := []struct {
		name    string
		message []byte
	}{
		{"ErrorLevel", []byte(`level=error msg="boom"`)},
		{"FatalLevel", []byte(`level=fatal msg="boom"`)},
		{"InfoLevel", []byte(`level=info msg="ok"`)},
		{"ErrorWordInMessage", []byte(`level=info msg="no error here"`)},
		{"Empty", []byte(``)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := splitter.Write(tt.message)
			assert.NoError(t, err)
			assert.Equal(t, len(tt.message), n)
		})
	}
}
