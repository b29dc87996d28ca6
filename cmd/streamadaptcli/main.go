// Command streamadaptcli is a small demonstration CLI driving the
// streamadapt adapters end to end: it reads a file, pushes it through
// one codec's WriteAdapter, and optionally verifies the round trip by
// reading the result back through the matching ReadAdapter.
package main

import (
	"bytes"
	"crypto/sha256"
	"flag"
	"hash"
	"io"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/streamadapt/streamadapt/brotli"
	"github.com/streamadapt/streamadapt/bzip2"
	"github.com/streamadapt/streamadapt/codecio"
	"github.com/streamadapt/streamadapt/deflate"
	"github.com/streamadapt/streamadapt/gzip"
	"github.com/streamadapt/streamadapt/zlib"
	"github.com/streamadapt/streamadapt/zstd"
)

var (
	inputFlag, outputFlag, codecFlag, levelFlag string
	decodeFlag, verifyFlag                      bool
)

func init() {
	flag.StringVar(&inputFlag, "f", "", "input filename ('-' for stdin)")
	flag.StringVar(&outputFlag, "o", "", "output filename ('-' for stdout)")
	flag.StringVar(&codecFlag, "codec", "zstd", "deflate|zlib|gzip|bzip2|brotli|zstd")
	flag.StringVar(&levelFlag, "level", "default", "fastest|default|best")
	flag.BoolVar(&decodeFlag, "d", false, "decode instead of encode")
	flag.BoolVar(&verifyFlag, "t", false, "read the output back and verify it matches the input")
}

func level() codecio.Level {
	switch levelFlag {
	case "fastest":
		return codecio.LevelFastest
	case "best":
		return codecio.LevelBest
	default:
		return codecio.LevelDefault
	}
}

// newWriteAdapter constructs the encode WriteAdapter for the selected
// codec. The codec packages expose constructors, not a registry; the
// CLI's switch is just the caller picking which package to call.
func newWriteAdapter(down codecio.Downstream, lvl codecio.Level) (*codecio.WriteAdapter, error) {
	switch codecFlag {
	case "deflate":
		return deflate.NewEncodeWriter(down, lvl)
	case "zlib":
		return zlib.NewEncodeWriter(down, lvl)
	case "gzip":
		return gzip.NewEncodeWriter(down, lvl)
	case "bzip2":
		return bzip2.NewEncodeWriter(down, lvl)
	case "brotli":
		return brotli.NewEncodeWriter(down, lvl)
	case "zstd":
		return zstd.NewEncodeWriter(down, lvl)
	default:
		log.Fatalf("unknown codec %q", codecFlag)
		panic("unreachable")
	}
}

func newDecodeReader(up codecio.Upstream) (*codecio.ReadAdapter, error) {
	switch codecFlag {
	case "deflate":
		return deflate.NewDecodeReader(up)
	case "zlib":
		return zlib.NewDecodeReader(up)
	case "gzip":
		return gzip.NewDecodeReader(up)
	case "bzip2":
		return bzip2.NewDecodeReader(up)
	case "brotli":
		return brotli.NewDecodeReader(up)
	case "zstd":
		return zstd.NewDecodeReader(up)
	default:
		log.Fatalf("unknown codec %q", codecFlag)
		panic("unreachable")
	}
}

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("failed to initialize logger", err)
	}
	defer logger.Sync()

	if inputFlag == "" || outputFlag == "" {
		logger.Fatal("both -f and -o need to be defined")
	}
	if verifyFlag && (outputFlag == "-" || decodeFlag) {
		logger.Fatal("-t can only be used with a non-stdout encode")
	}

	input, err := openInput(inputFlag)
	if err != nil {
		logger.Fatal("failed to open input", zap.Error(err))
	}
	defer input.Close()

	output, err := openOutput(outputFlag)
	if err != nil {
		logger.Fatal("failed to open output", zap.Error(err))
	}
	defer output.Close()

	bar := progressbar.DefaultBytes(-1, map[bool]string{true: "decoding", false: "encoding"}[decodeFlag])
	defer bar.Close()

	expected := sha256.New()
	if decodeFlag {
		if err := runDecode(input, output, bar); err != nil {
			logger.Fatal("decode failed", zap.Error(err))
		}
		return
	}

	if err := runEncode(input, output, expected, bar); err != nil {
		logger.Fatal("encode failed", zap.Error(err))
	}

	if verifyFlag {
		if err := verify(outputFlag, expected, logger); err != nil {
			logger.Fatal("verification failed", zap.Error(err))
		}
	}
}

func openInput(name string) (*os.File, error) {
	if name == "-" {
		return os.Stdin, nil
	}
	return os.Open(name)
}

func openOutput(name string) (*os.File, error) {
	if name == "-" {
		return os.Stdout, nil
	}
	return os.OpenFile(name, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0644)
}

func runEncode(input io.Reader, output io.Writer, checksum hash.Hash, bar *progressbar.ProgressBar) error {
	w, err := newWriteAdapter(codecio.NewWriterDownstream(output), level())
	if err != nil {
		return err
	}

	buf := make([]byte, 32*1024)
	for {
		n, rerr := input.Read(buf)
		if n > 0 {
			if _, err := checksum.Write(buf[:n]); err != nil {
				return err
			}
			chunk := buf[:n]
			for len(chunk) > 0 {
				written, err := w.Write(chunk)
				if err != nil && err != codecio.ErrPending {
					return err
				}
				chunk = chunk[written:]
			}
			_ = bar.Add(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	return w.Close()
}

func runDecode(input io.Reader, output io.Writer, bar *progressbar.ProgressBar) error {
	r, err := newDecodeReader(codecio.NewReaderUpstream(input, 32*1024))
	if err != nil {
		return err
	}
	for {
		b, err := r.FillBuffer()
		if err == io.EOF {
			return nil
		}
		if err != nil && err != codecio.ErrPending {
			return err
		}
		if len(b) > 0 {
			if _, werr := output.Write(b); werr != nil {
				return werr
			}
			_ = bar.Add(len(b))
			r.Consume(len(b))
		}
	}
}

func verify(outputFile string, expected hash.Hash, logger *zap.Logger) error {
	f, err := os.Open(outputFile)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := newDecodeReader(codecio.NewReaderUpstream(f, 32*1024))
	if err != nil {
		return err
	}

	actual := sha256.New()
	for {
		b, err := r.FillBuffer()
		if err == io.EOF {
			break
		}
		if err != nil && err != codecio.ErrPending {
			return err
		}
		if len(b) > 0 {
			actual.Write(b)
			r.Consume(len(b))
		}
	}

	if !bytes.Equal(actual.Sum(nil), expected.Sum(nil)) {
		logger.Fatal("checksum mismatch")
	}
	return nil
}
