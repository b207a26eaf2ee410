package transcode

import (
	"bytes"
	"testing"
)

func TestBufferGrowsToExactDemand(t *testing.T) {
	var b buffer
	b.write([]byte("0123456789"))
	if len(b.data) != 10 {
		t.Fatalf("expected capacity 10, got %d", len(b.data))
	}

	region := b.prepare(5)
	if len(region) != 5 {
		t.Fatalf("expected a 5-byte region, got %d", len(region))
	}
	if len(b.data) != 15 {
		t.Fatalf("expected capacity to track exact demand (15), got %d", len(b.data))
	}
	if !bytes.Equal(b.data[:10], []byte("0123456789")) {
		t.Fatal("prepare did not preserve previously written bytes")
	}
	if b.pos != 10 {
		t.Fatalf("prepare must not advance the cursor, pos = %d", b.pos)
	}
}

func TestBufferWriteAdvancesCursor(t *testing.T) {
	var b buffer
	if n := b.write([]byte("abc")); n != 3 {
		t.Fatalf("write returned %d, expected 3", n)
	}
	if n := b.write([]byte("def")); n != 3 {
		t.Fatalf("write returned %d, expected 3", n)
	}
	if b.pos != 6 {
		t.Fatalf("expected pos 6, got %d", b.pos)
	}
	if !bytes.Equal(b.data[:6], []byte("abcdef")) {
		t.Fatalf("unexpected buffer contents %q", b.data[:6])
	}
	if int64(len(b.data)) < b.pos {
		t.Fatal("capacity fell below pos")
	}
}

func TestBufferSetPosForwardZeroFills(t *testing.T) {
	var b buffer
	b.write([]byte("abc"))
	b.setPos(8)
	if b.pos != 8 {
		t.Fatalf("expected pos 8, got %d", b.pos)
	}
	if !bytes.Equal(b.data[3:8], make([]byte, 5)) {
		t.Fatalf("expected zero-filled gap, got %v", b.data[3:8])
	}
}

func TestBufferSetPosBackwardKeepsCapacity(t *testing.T) {
	var b buffer
	b.write(make([]byte, 100))
	b.setPos(40)
	if b.pos != 40 {
		t.Fatalf("expected pos 40, got %d", b.pos)
	}
	if len(b.data) != 100 {
		t.Fatalf("expected capacity retained at 100, got %d", len(b.data))
	}
}
