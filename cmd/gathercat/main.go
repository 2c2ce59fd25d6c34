// gathercat — connect to a gatherd instance, fetch one channel's gather
// buffer, and print decoded samples to stdout (one tab-separated line per
// sample row).
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/motionctl/gatherd/internal/client"
	"github.com/motionctl/gatherd/internal/gather"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:2332", "gather server address (host:port)")
	phase := flag.Bool("phase", false, "dump the phase channel instead of servo")
	typesOnly := flag.Bool("types", false, "print item type codes only, no data")
	bigEndian := flag.Bool("big-endian", false, "server speaks big-endian wire order")
	timeout := flag.Duration("timeout", 5*time.Second, "dial timeout")
	flag.Parse()

	var order binary.ByteOrder = binary.LittleEndian
	if *bigEndian {
		order = binary.BigEndian
	}

	c, err := client.Dial(*addr,
		client.WithByteOrder(order),
		client.WithDialTimeout(*timeout),
	)
	if err != nil {
		fatal(err)
	}
	defer c.Close()

	if *phase {
		err = c.SetPhaseMode()
	} else {
		err = c.SetServoMode()
	}
	if err != nil {
		fatal(err)
	}

	if *typesOnly {
		types, err := c.QueryTypes()
		if err != nil {
			fatal(err)
		}
		for i, code := range types {
			fmt.Printf("item %d: %d (%s)\n", i, code, gather.TypeName(code))
		}
		return
	}

	types, samples, raw, err := c.QueryAll()
	if err != nil {
		fatal(err)
	}
	if len(types) == 0 {
		fmt.Fprintln(os.Stderr, "gathercat: channel has no items gathered")
		return
	}

	cols, err := gather.Unpack(types, order, raw)
	if err != nil {
		fatal(err)
	}

	names := make([]string, len(types))
	for i, code := range types {
		names[i] = gather.TypeName(code)
	}
	fmt.Printf("# samples=%d items=%d\n", samples, len(types))
	fmt.Println("# " + strings.Join(names, "\t"))

	lines := 0
	if len(cols) > 0 {
		lines = len(cols[0])
	}
	row := make([]string, len(cols))
	for l := 0; l < lines; l++ {
		for i := range cols {
			row[i] = strconv.FormatFloat(cols[i][l], 'g', -1, 64)
		}
		fmt.Println(strings.Join(row, "\t"))
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "gathercat:", err)
	os.Exit(1)
}
