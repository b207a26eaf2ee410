package tags

import (
	"strconv"
	"strings"

	"github.com/olivier-w/mp3mirror/internal/codec"
)

// v1Size is the fixed size of the trailing ID3v1 tag.
const v1Size = 128

// v1Fields are the source fields the trailing tag can carry.
type v1Fields struct {
	title   string
	artist  string
	album   string
	year    string
	comment string
	genre   string
	track   int
}

func v1FieldsFrom(src codec.SourceTags) v1Fields {
	f := v1Fields{}
	f.title, _ = src.Get("TITLE")
	f.artist, _ = src.Get("ARTIST")
	f.album, _ = src.Get("ALBUM")
	f.comment, _ = src.Get("DESCRIPTION")
	f.genre, _ = src.Get("GENRE")

	if date, ok := src.Get("DATE"); ok && len(date) >= 4 {
		f.year = date[:4]
	}
	if num, ok := src.Get("TRACKNUMBER"); ok {
		end := 0
		for end < len(num) && num[end] >= '0' && num[end] <= '9' {
			end++
		}
		if n, err := strconv.Atoi(num[:end]); err == nil && n > 0 && n < 256 {
			f.track = n
		}
	}
	return f
}

// renderV1 serializes the fields into the fixed 128-byte ID3v1 layout:
// "TAG", title[30], artist[30], album[30], year[4], comment[30], genre[1].
// A non-zero track uses the ID3v1.1 variant, claiming the last two comment
// bytes for a zero marker and the track number.
func renderV1(f v1Fields) [v1Size]byte {
	var b [v1Size]byte
	copy(b[0:3], "TAG")
	copy(b[3:33], f.title)
	copy(b[33:63], f.artist)
	copy(b[63:93], f.album)
	copy(b[93:97], f.year)
	if f.track > 0 {
		copy(b[97:125], f.comment)
		b[125] = 0
		b[126] = byte(f.track)
	} else {
		copy(b[97:127], f.comment)
	}
	b[127] = genreIndex(f.genre)
	return b
}

// genreIndex maps a genre name onto the standard ID3v1 genre table.
// Unknown genres map to 255.
func genreIndex(genre string) byte {
	if genre == "" {
		return 255
	}
	for i, name := range id3v1Genres {
		if strings.EqualFold(name, genre) {
			return byte(i)
		}
	}
	return 255
}

// id3v1Genres is the standard ID3v1 genre table.
var id3v1Genres = []string{
	"Blues", "Classic Rock", "Country", "Dance", "Disco", "Funk", "Grunge",
	"Hip-Hop", "Jazz", "Metal", "New Age", "Oldies", "Other", "Pop", "R&B",
	"Rap", "Reggae", "Rock", "Techno", "Industrial", "Alternative", "Ska",
	"Death Metal", "Pranks", "Soundtrack", "Euro-Techno", "Ambient",
	"Trip-Hop", "Vocal", "Jazz+Funk", "Fusion", "Trance", "Classical",
	"Instrumental", "Acid", "House", "Game", "Sound Clip", "Gospel", "Noise",
	"Alternative Rock", "Bass", "Soul", "Punk", "Space", "Meditative",
	"Instrumental Pop", "Instrumental Rock", "Ethnic", "Gothic", "Darkwave",
	"Techno-Industrial", "Electronic", "Pop-Folk", "Eurodance", "Dream",
	"Southern Rock", "Comedy", "Cult", "Gangsta", "Top 40", "Christian Rap",
	"Pop/Funk", "Jungle", "Native American", "Cabaret", "New Wave",
	"Psychedelic", "Rave", "Showtunes", "Trailer", "Lo-Fi", "Tribal",
	"Acid Punk", "Acid Jazz", "Polka", "Retro", "Musical", "Rock & Roll",
	"Hard Rock",
}
