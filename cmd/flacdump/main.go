// flacdump drains one transcode session to disk, producing the exact bytes
// a server read of the whole virtual file would return. Useful for checking
// tags and size predictions against real players.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/olivier-w/mp3mirror/internal/transcode"
)

func main() {
	bitrate := flag.Int("bitrate", 128, "target bitrate in kbps")
	quality := flag.Int("quality", 2, "encoder quality hint")
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "usage: flacdump [flags] input.flac [output.mp3]")
		os.Exit(2)
	}
	in := flag.Arg(0)
	if len(in) <= len(".flac") || !strings.EqualFold(in[len(in)-len(".flac"):], ".flac") {
		fmt.Fprintln(os.Stderr, "Error: input must be a .flac file")
		os.Exit(2)
	}
	virtual := in[:len(in)-len(".flac")] + ".mp3"
	out := virtual
	if flag.NArg() == 2 {
		out = flag.Arg(1)
	}

	log := hclog.New(&hclog.LoggerOptions{Name: "flacdump", Level: hclog.Warn})
	cfg := transcode.Config{BitrateKbps: *bitrate, Quality: *quality}

	sess, err := transcode.Open(virtual, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	f, err := os.Create(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	n, err := io.Copy(f, io.NewSectionReader(sess, 0, sess.Size()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: wrote %d of %d predicted bytes\n", out, n, sess.Size())
}
