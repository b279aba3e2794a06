package txset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

var sampleTxs = []string{
	"Sender: Bob; Receiver: Alice; Amount: 465",
	"Sender: Bella; Receiver: Lily, Amount: 24",
	"Sender: Jake; Receiver: Allie, Amount: 987",
}

func assertTxs(t *testing.T, got [][]byte, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d transactions, want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Errorf("tx[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatLines},
		{in: "lines", want: FormatLines},
		{in: "HEX", want: FormatHex},
		{in: " json ", want: FormatJSON},
		{in: "cbor", want: FormatCBOR},
		{in: "yaml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("ParseFormat(%q) error = %v, want ErrUnknownFormat", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRead_Lines(t *testing.T) {
	input := sampleTxs[0] + "\r\n\n" + sampleTxs[1] + "\n   \n" + sampleTxs[2]
	txs, err := Read(strings.NewReader(input), FormatLines)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	assertTxs(t, txs, sampleTxs)
}

func TestRead_Empty(t *testing.T) {
	txs, err := Read(strings.NewReader("\n\n"), FormatLines)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("got %d transactions, want 0", len(txs))
	}
}

func TestRead_Hex(t *testing.T) {
	txs, err := Read(strings.NewReader("00ff\n\n 6869 \n"), FormatHex)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(txs) != 2 || string(txs[0]) != "\x00\xff" || string(txs[1]) != "hi" {
		t.Errorf("unexpected transactions: %q", txs)
	}

	_, err = Read(strings.NewReader("00ff\nzz\n"), FormatHex)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("bad hex error = %v, want line 2 context", err)
	}
}

func TestRead_JSON(t *testing.T) {
	input := "\xEF\xBB\xBF" + `["` + strings.Join(sampleTxs, `","`) + `"]`
	txs, err := Read(strings.NewReader(input), FormatJSON)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	assertTxs(t, txs, sampleTxs)

	if _, err := Read(strings.NewReader(`{"tx": 1}`), FormatJSON); err == nil {
		t.Error("non-array JSON should fail")
	}
}

func TestRead_CBOR(t *testing.T) {
	t.Run("byte strings", func(t *testing.T) {
		items := make([][]byte, len(sampleTxs))
		for i, s := range sampleTxs {
			items[i] = []byte(s)
		}
		data, err := cbor.Marshal(items)
		if err != nil {
			t.Fatalf("cbor.Marshal: %v", err)
		}
		txs, err := Read(strings.NewReader(string(data)), FormatCBOR)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		assertTxs(t, txs, sampleTxs)
	})

	t.Run("text strings", func(t *testing.T) {
		data, err := cbor.Marshal(sampleTxs)
		if err != nil {
			t.Fatalf("cbor.Marshal: %v", err)
		}
		txs, err := Read(strings.NewReader(string(data)), FormatCBOR)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		assertTxs(t, txs, sampleTxs)
	})

	t.Run("not an array", func(t *testing.T) {
		data, err := cbor.Marshal(map[string]int{"tx": 1})
		if err != nil {
			t.Fatalf("cbor.Marshal: %v", err)
		}
		if _, err := Read(strings.NewReader(string(data)), FormatCBOR); err == nil {
			t.Error("CBOR map should fail")
		}
	})

	t.Run("wrong item type", func(t *testing.T) {
		data, err := cbor.Marshal([]interface{}{"ok", 42})
		if err != nil {
			t.Fatalf("cbor.Marshal: %v", err)
		}
		if _, err := Read(strings.NewReader(string(data)), FormatCBOR); err == nil {
			t.Error("integer item should fail")
		}
	})
}

func TestRead_UnknownFormat(t *testing.T) {
	if _, err := Read(strings.NewReader("x"), Format("xml")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("error = %v, want ErrUnknownFormat", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txs.txt")
	if err := os.WriteFile(path, []byte(strings.Join(sampleTxs, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	txs, err := Load(path, FormatLines)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertTxs(t, txs, sampleTxs)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt"), FormatLines); err == nil {
		t.Error("missing file should fail")
	}
}
