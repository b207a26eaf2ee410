package tags

import (
	"bytes"
	"math"
	"testing"

	"github.com/bogem/id3v2/v2"

	"github.com/olivier-w/mp3mirror/internal/codec"
)

var testInfo = codec.StreamInfo{
	SampleRate:    44100,
	Channels:      2,
	BitsPerSample: 16,
	TotalSamples:  441000,
}

func sourceTags(fields map[string]string) codec.SourceTags {
	return codec.SourceTags{Fields: fields}
}

func renderAndParse(t *testing.T, s *Set) *id3v2.Tag {
	t.Helper()
	raw, err := s.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	parsed, err := id3v2.ParseReader(bytes.NewReader(raw), id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("parsing rendered tag: %v", err)
	}
	return parsed
}

func TestBuildCopiesPresentFieldsOnly(t *testing.T) {
	s := Build(testInfo, sourceTags(map[string]string{
		"TITLE":  "Song",
		"ARTIST": "Band",
	}))
	parsed := renderAndParse(t, s)

	if got := parsed.GetTextFrame("TIT2").Text; got != "Song" {
		t.Fatalf("expected title frame \"Song\", got %q", got)
	}
	if got := parsed.GetTextFrame("TPE1").Text; got != "Band" {
		t.Fatalf("expected artist frame \"Band\", got %q", got)
	}
	if got := parsed.GetTextFrame("TALB").Text; got != "" {
		t.Fatalf("expected no album frame, got %q", got)
	}
	if got := parsed.GetTextFrame("TPE2").Text; got != "" {
		t.Fatalf("expected no album-artist frame, got %q", got)
	}
}

func TestBuildAlwaysAttachesEncoderAndDuration(t *testing.T) {
	s := Build(testInfo, sourceTags(nil))
	parsed := renderAndParse(t, s)

	if got := parsed.GetTextFrame("TSSE").Text; got != EncoderName {
		t.Fatalf("expected encoder frame %q, got %q", EncoderName, got)
	}
	// 441000 samples at 44100 Hz is exactly ten seconds.
	if got := parsed.GetTextFrame("TLEN").Text; got != "10000" {
		t.Fatalf("expected duration frame \"10000\", got %q", got)
	}
}

func TestBuildAlbumArtistFallback(t *testing.T) {
	s := Build(testInfo, sourceTags(map[string]string{
		"ALBUM ARTIST": "Various",
	}))
	parsed := renderAndParse(t, s)
	if got := parsed.GetTextFrame("TPE2").Text; got != "Various" {
		t.Fatalf("expected spaced album-artist fallback, got %q", got)
	}

	s = Build(testInfo, sourceTags(map[string]string{
		"ALBUMARTIST":  "Primary",
		"ALBUM ARTIST": "Ignored",
	}))
	parsed = renderAndParse(t, s)
	if got := parsed.GetTextFrame("TPE2").Text; got != "Primary" {
		t.Fatalf("expected unspaced album-artist to win, got %q", got)
	}
}

func TestTrackAndDiscComposition(t *testing.T) {
	cases := []struct {
		fields map[string]string
		id     string
		want   string
	}{
		{map[string]string{"TRACKNUMBER": "3", "TRACKTOTAL": "12"}, "TRCK", "3/12"},
		{map[string]string{"TRACKNUMBER": "3"}, "TRCK", "3"},
		{map[string]string{"TRACKTOTAL": "12"}, "TRCK", ""},
		{map[string]string{"DISCNUMBER": "1", "DISCTOTAL": "2"}, "TPOS", "1/2"},
		{map[string]string{"DISCNUMBER": "1"}, "TPOS", "1"},
	}
	for _, c := range cases {
		s := Build(testInfo, sourceTags(c.fields))
		parsed := renderAndParse(t, s)
		if got := parsed.GetTextFrame(c.id).Text; got != c.want {
			t.Fatalf("fields %v: expected %s=%q, got %q", c.fields, c.id, c.want, got)
		}
	}
}

func TestReplayGainPriority(t *testing.T) {
	s := Build(testInfo, sourceTags(map[string]string{
		"REPLAYGAIN_ALBUM_GAIN": "-3",
		"REPLAYGAIN_TRACK_GAIN": "-5",
	}))
	want := math.Pow(10, -3.0/20)
	if got := s.Scale(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected album gain scale %v, got %v", want, got)
	}

	s = Build(testInfo, sourceTags(map[string]string{
		"REPLAYGAIN_TRACK_GAIN": "-5 dB",
	}))
	want = math.Pow(10, -5.0/20)
	if got := s.Scale(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected track gain scale %v, got %v", want, got)
	}
}

func TestReplayGainZeroAndAbsent(t *testing.T) {
	s := Build(testInfo, sourceTags(map[string]string{
		"REPLAYGAIN_ALBUM_GAIN": "0",
	}))
	if got := s.Scale(); got != 0 {
		t.Fatalf("expected zero gain to leave scale unset, got %v", got)
	}

	s = Build(testInfo, sourceTags(nil))
	if got := s.Scale(); got != 0 {
		t.Fatalf("expected absent gain to leave scale unset, got %v", got)
	}
}

func TestBuildAttachesPictures(t *testing.T) {
	src := sourceTags(map[string]string{"TITLE": "Song"})
	src.Pictures = []codec.Picture{{
		MIME:        "image/jpeg",
		Description: "cover",
		Type:        3,
		Data:        []byte{0xff, 0xd8, 0x00},
	}}
	s := Build(testInfo, src)
	parsed := renderAndParse(t, s)

	frames := parsed.GetFrames(parsed.CommonID("Attached picture"))
	if len(frames) != 1 {
		t.Fatalf("expected one picture frame, got %d", len(frames))
	}
	pic, ok := frames[0].(id3v2.PictureFrame)
	if !ok {
		t.Fatalf("expected PictureFrame, got %T", frames[0])
	}
	if pic.MimeType != "image/jpeg" || pic.PictureType != 3 {
		t.Fatalf("unexpected picture frame: %+v", pic)
	}
	if !bytes.Equal(pic.Picture, []byte{0xff, 0xd8, 0x00}) {
		t.Fatal("picture data did not round-trip")
	}
}

func TestLeadingFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"-3", -3},
		{"-3.5 dB", -3.5},
		{"+2dB", 2},
		{"0", 0},
		{"dB", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := leadingFloat(c.in); got != c.want {
			t.Fatalf("leadingFloat(%q) = %v, expected %v", c.in, got, c.want)
		}
	}
}
