package transcode

// buffer is the session's append-only output sink. Capacity tracks exact
// demand: prepare grows the backing slice to precisely pos+n, never
// geometrically, and nothing ever shrinks it.
type buffer struct {
	data []byte
	pos  int64
}

// prepare returns a writable region of n bytes at the current cursor,
// growing the backing storage if needed. Previously written bytes are
// preserved.
func (b *buffer) prepare(n int) []byte {
	need := b.pos + int64(n)
	if int64(len(b.data)) < need {
		grown := make([]byte, need)
		copy(grown, b.data[:b.pos])
		b.data = grown
	}
	return b.data[b.pos:need]
}

// write appends p and advances the cursor, returning the number of bytes
// written.
func (b *buffer) write(p []byte) int {
	dst := b.prepare(len(p))
	copy(dst, p)
	b.pos += int64(len(p))
	return len(p)
}

// setPos moves the cursor to an absolute position, zero-filling any gap when
// moving forward. Used only for the finisher's one corrective adjustment.
func (b *buffer) setPos(pos int64) {
	if pos > b.pos {
		b.prepare(int(pos - b.pos))
	}
	b.pos = pos
}
