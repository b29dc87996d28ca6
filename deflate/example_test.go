package deflate_test

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/streamadapt/streamadapt/deflate"
	"github.com/streamadapt/streamadapt/codecio"
)

func Example() {
	var compressed bytes.Buffer

	w, err := deflate.NewEncodeWriter(codecio.NewWriterDownstream(&compressed), codecio.LevelDefault)
	if err != nil {
		log.Fatal(err)
	}

	// Write data in chunks; the decoded bytes come back in order and are
	// the same however the caller chunks them, though the chunk
	// boundaries themselves are not kept.
	for _, b := range [][]byte{[]byte("Hello"), []byte(" World!")} {
		if _, err := w.Write(b); err != nil {
			log.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		log.Fatal(err)
	}

	r, err := deflate.NewDecodeReader(codecio.NewBufferUpstream(compressed.Bytes()))
	if err != nil {
		log.Fatal(err)
	}

	var decoded []byte
	for {
		b, err := r.FillBuffer()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		decoded = append(decoded, b...)
		r.Consume(len(b))
	}

	fmt.Println(string(decoded))
	// Output: Hello World!
}
