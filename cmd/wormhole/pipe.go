package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wormhole-core/wormhole/wormhole"
)

// msgChunkSize bounds how much of stdin goes into a single application
// message; the engine has no framing of its own above one mailbox message.
const msgChunkSize = 1 << 16

func send(args ...string) {
	set := flag.NewFlagSet(args[0], flag.ExitOnError)
	set.Usage = func() {
		fmt.Fprintf(set.Output(), "send stdin to a waiting receive\n\n")
		fmt.Fprintf(set.Output(), "usage: %s %s\n\n", os.Args[0], args[0])
		fmt.Fprintf(set.Output(), "flags:\n")
		set.PrintDefaults()
	}
	length := set.Int("length", 2, "number of words in the generated code")
	set.Parse(args[1:])

	codec, conn := wormhole.New(*serverURL, *appID, *length)
	go printcode(<-codec)

	c, err := conn.Wait(context.Background())
	if err != nil {
		fatalf("could not establish connection: %v", err)
	}
	fmt.Fprintf(os.Stderr, "verifier: %x\n", c.Verifier())

	_, err = io.CopyBuffer(c, os.Stdin, make([]byte, msgChunkSize))
	if err != nil {
		fatalf("could not write to channel: %v", err)
	}
	c.Close()
}

func receive(args ...string) {
	set := flag.NewFlagSet(args[0], flag.ExitOnError)
	set.Usage = func() {
		fmt.Fprintf(set.Output(), "receive onto stdout from a matching send\n\n")
		fmt.Fprintf(set.Output(), "usage: %s %s <code>\n\n", os.Args[0], args[0])
		fmt.Fprintf(set.Output(), "flags:\n")
		set.PrintDefaults()
	}
	set.Parse(args[1:])
	if set.NArg() != 1 {
		set.Usage()
		os.Exit(2)
	}

	conn := wormhole.Dial(*serverURL, *appID, set.Arg(0))
	c, err := conn.Wait(context.Background())
	if err != nil {
		fatalf("could not establish connection: %v", err)
	}
	fmt.Fprintf(os.Stderr, "verifier: %x\n", c.Verifier())

	_, err = io.CopyBuffer(os.Stdout, c, make([]byte, msgChunkSize))
	if err != nil {
		fatalf("could not write to stdout: %v", err)
	}
	c.Close()
}
