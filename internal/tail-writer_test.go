package internal

import "testing"

func TestTailWriter(t *testing.T) {
	w := NewTailWriter(4)
	if w.String() != "" {
		t.Error("TailWriter empty failed")
	}
	if n, err := w.Write([]byte("ab")); n != 2 || err != nil {
		t.Error("TailWriter write 1 failed")
	}
	if w.String() != "ab" {
		t.Error("TailWriter 1 failed: ", w.String())
	}
	if n, err := w.Write([]byte("cde")); n != 3 || err != nil {
		t.Error("TailWriter write 2 failed")
	}
	if w.String() != "bcde" {
		t.Error("TailWriter 2 failed: ", w.String())
	}
	if n, err := w.Write([]byte("f")); n != 1 || err != nil {
		t.Error("TailWriter write 3 failed")
	}
	if w.String() != "cdef" {
		t.Error("TailWriter 3 failed: ", w.String())
	}
}

func TestTailWriterLargeWrite(t *testing.T) {
	w := NewTailWriter(4)
	if n, err := w.Write([]byte("abcdefgh")); n != 8 || err != nil {
		t.Error("TailWriter large write failed")
	}
	if w.String() != "efgh" {
		t.Error("TailWriter large write tail failed: ", w.String())
	}
	w = NewTailWriter(4)
	w.Write([]byte("abcd"))
	if w.String() != "abcd" {
		t.Error("TailWriter exact write failed: ", w.String())
	}
}

func TestTailWriterByteWise(t *testing.T) {
	w := NewTailWriter(3)
	for _, b := range []byte("abcdefg") {
		w.Write([]byte{b})
	}
	if w.String() != "efg" {
		t.Error("TailWriter byte-wise failed: ", w.String())
	}
}
