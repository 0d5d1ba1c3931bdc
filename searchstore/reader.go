package searchstore

import (
	"bytes"
	"io"
	"net/http"
)

func newBodyReader(body []byte) io.Reader {
	if len(body) == 0 {
		return http.NoBody
	}
	return bytes.NewReader(body)
}
