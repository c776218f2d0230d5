package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jypelle/ledmatrix/internal/bitmap"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})
	logrus.SetOutput(os.Stderr)

	mainCommand := filepath.Base(os.Args[0])

	invert := flag.Bool("invert", false, "Light the bright pixels instead of the dark ones")
	noStrobe := flag.Bool("no-strobe", false, "Do not append the strobe command")
	quiet := flag.Bool("quiet", false, "Prepend the quiet command")
	output := flag.String("o", "-", "Output file, - for stdout")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "\nUsage: %s [OPTIONS] IMAGE\n", mainCommand)
		fmt.Fprintf(os.Stderr, "\nConvert a PNG, GIF, JPEG or SVG image into the byte stream of an 8 row panel\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	img, err := bitmap.Load(flag.Arg(0))
	if err != nil {
		logrus.Fatalf("Unable to load %s: %v", flag.Arg(0), err)
	}
	columns := bitmap.Columns(img, *invert)
	logrus.Debugf("%s: %d columns", flag.Arg(0), len(columns))

	stream := bitmap.Encode(columns, *quiet, !*noStrobe)
	if *output == "-" {
		_, err = os.Stdout.Write(stream)
	} else {
		err = os.WriteFile(*output, stream, 0644)
	}
	if err != nil {
		logrus.Fatalf("Unable to write stream: %v", err)
	}
}
