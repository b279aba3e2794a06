// Package txset reads an ordered transaction set from a file or stream.
//
// Supported formats:
//   - lines: one transaction per line, blank lines skipped
//   - hex:   one hex-encoded transaction per line, blank lines skipped
//   - json:  a JSON array of strings
//   - cbor:  a CBOR array of byte strings or text strings
//
// Order is preserved exactly; it determines the merkle root.
package txset

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-merkle/internal/log"
	"github.com/fxamacker/cbor/v2"
)

// Format names an input encoding.
type Format string

const (
	FormatLines Format = "lines"
	FormatHex   Format = "hex"
	FormatJSON  Format = "json"
	FormatCBOR  Format = "cbor"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// maxLineSize bounds a single line-oriented transaction.
const maxLineSize = 1 << 20

// ErrUnknownFormat is returned for an unrecognised format name.
var ErrUnknownFormat = errors.New("unknown transaction format")

// ParseFormat validates a format name. An empty name selects lines.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatLines, nil
	case FormatLines, FormatHex, FormatJSON, FormatCBOR:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Load reads a transaction set from path. An empty path or "-" reads stdin.
func Load(path string, format Format) ([][]byte, error) {
	if path == "" || path == Stdin {
		return Read(os.Stdin, format)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transactions: %w", err)
	}
	defer f.Close()

	txs, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Input.Debug().
		Str("file", path).
		Str("format", string(format)).
		Int("count", len(txs)).
		Msg("Transactions loaded")
	return txs, nil
}

// Read decodes a transaction set from r.
func Read(r io.Reader, format Format) ([][]byte, error) {
	switch format {
	case FormatLines, "":
		return readLines(r, func(line string) ([]byte, error) {
			return []byte(line), nil
		})
	case FormatHex:
		return readLines(r, func(line string) ([]byte, error) {
			return hex.DecodeString(strings.TrimSpace(line))
		})
	case FormatJSON:
		return readJSON(r)
	case FormatCBOR:
		return readCBOR(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func readLines(r io.Reader, decode func(string) ([]byte, error)) ([][]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var txs [][]byte
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tx, err := decode(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNum+1, err)
	}
	return txs, nil
}

func readJSON(r io.Reader) ([][]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	// Tolerate a UTF-8 BOM.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode json transactions: %w", err)
	}
	txs := make([][]byte, len(items))
	for i, s := range items {
		txs[i] = []byte(s)
	}
	return txs, nil
}

func readCBOR(r io.Reader) ([][]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var raw []cbor.RawMessage
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode cbor transactions: %w", err)
	}
	txs := make([][]byte, len(raw))
	for i, item := range raw {
		var b []byte
		if err := cbor.Unmarshal(item, &b); err == nil {
			txs[i] = b
			continue
		}
		var s string
		if err := cbor.Unmarshal(item, &s); err != nil {
			return nil, fmt.Errorf("cbor item %d: want byte or text string: %w", i, err)
		}
		txs[i] = []byte(s)
	}
	return txs, nil
}
