// Package tags maps source metadata onto the destination tag structures: a
// variable-length ID3v2 header tag and the fixed 128-byte ID3v1 trailer.
package tags

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"

	"github.com/olivier-w/mp3mirror/internal/codec"
)

// EncoderName identifies this software in the TSSE frame.
const EncoderName = "mp3mirror"

// Set is the destination tag set for one session. Built once at session
// construction, rendered once, then discarded.
type Set struct {
	tag   *id3v2.Tag
	scale float64
	v1    v1Fields
}

// Build maps the source stream info and tag fields onto destination frames.
func Build(info codec.StreamInfo, src codec.SourceTags) *Set {
	tag := id3v2.NewEmptyTag()
	s := &Set{tag: tag}

	add := func(id, text string) {
		tag.AddTextFrame(id, id3v2.EncodingUTF8, text)
	}

	add("TSSE", EncoderName)

	if info.SampleRate > 0 {
		ms := info.TotalSamples * 1000 / int64(info.SampleRate)
		add("TLEN", strconv.FormatInt(ms, 10))
	}

	copies := []struct{ id, field string }{
		{"TIT2", "TITLE"},
		{"TPE1", "ARTIST"},
		{"TALB", "ALBUM"},
		{"TCON", "GENRE"},
		{"TDRC", "DATE"},
		{"TCOM", "COMPOSER"},
		{"TOPE", "PERFORMER"},
		{"TCOP", "COPYRIGHT"},
		{"WXXX", "LICENSE"},
		{"TENC", "ENCODED_BY"},
		{"TPUB", "ORGANIZATION"},
		{"TPE3", "CONDUCTOR"},
	}
	for _, c := range copies {
		if v, ok := src.Get(c.field); ok {
			add(c.id, v)
		}
	}

	if v, ok := src.Get("DESCRIPTION"); ok {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "eng",
			Text:     v,
		})
	}

	// Album artist lives under two different field spellings in the wild.
	if v, ok := src.Get("ALBUMARTIST"); ok {
		add("TPE2", v)
	} else if v, ok := src.Get("ALBUM ARTIST"); ok {
		add("TPE2", v)
	}

	if v, ok := composeIndex(src, "TRACKNUMBER", "TRACKTOTAL"); ok {
		add("TRCK", v)
	}
	if v, ok := composeIndex(src, "DISCNUMBER", "DISCTOTAL"); ok {
		add("TPOS", v)
	}

	// Album gain wins over track gain; a gain of exactly zero keeps the
	// encoder's default scale.
	if v, ok := src.Get("REPLAYGAIN_ALBUM_GAIN"); ok {
		if db := leadingFloat(v); db != 0 {
			s.scale = math.Pow(10, db/20)
		}
	} else if v, ok := src.Get("REPLAYGAIN_TRACK_GAIN"); ok {
		if db := leadingFloat(v); db != 0 {
			s.scale = math.Pow(10, db/20)
		}
	}

	for _, p := range src.Pictures {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    p.MIME,
			PictureType: byte(p.Type),
			Description: p.Description,
			Picture:     p.Data,
		})
	}

	s.v1 = v1FieldsFrom(src)
	return s
}

// Scale returns the linear replay-gain multiplier, or zero when no gain
// metadata applies.
func (s *Set) Scale() float64 { return s.scale }

// Render serializes the header tag once. Its length is the authoritative
// header size and the same bytes are what reaches the output, so the size
// prediction matches the written header exactly.
func (s *Set) Render() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.tag.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("rendering header tag: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderV1 produces the fixed 128-byte trailing tag.
func (s *Set) RenderV1() [v1Size]byte {
	return renderV1(s.v1)
}

// composeIndex builds "<number>/<total>" from a pair of source fields.
// No number means no frame, even when a total is present.
func composeIndex(src codec.SourceTags, numberField, totalField string) (string, bool) {
	number, ok := src.Get(numberField)
	if !ok {
		return "", false
	}
	if total, ok := src.Get(totalField); ok {
		return number + "/" + total, true
	}
	return number, true
}

// leadingFloat parses the leading numeric portion of a string, so values
// like "-3.5 dB" or "+2dB" yield their decibel component. Returns zero when
// no number leads the string.
func leadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	dot := false
scan:
	for i, r := range s {
		switch {
		case r == '+' || r == '-':
			if i != 0 {
				break scan
			}
		case r == '.':
			if dot {
				break scan
			}
			dot = true
		case r < '0' || r > '9':
			break scan
		}
		end = i + 1
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}
