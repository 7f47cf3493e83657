// Command wormhole moves bytes between two computers over a verified,
// encrypted channel established with a short human-typed code. Adapted from
// the teacher's cmd/ww/main.go dispatch table; file.go's file-transfer
// framing is dropped (file transfer is out of scope here), and pipe.go's
// plain byte-pipe shape survives as send/receive.
package main

import (
	"flag"
	"fmt"
	"os"
)

var subcmds = map[string]func(args ...string){
	"send":    send,
	"receive": receive,
	"server":  server,
}

var (
	serverURL = flag.String("server", "ws://127.0.0.1:4000/", "rendezvous server to use")
	appID     = flag.String("app", "github.com/wormhole-core/wormhole", "application id to bind with")
)

func usage() {
	w := flag.CommandLine.Output()
	fmt.Fprintf(w, "wormhole moves bytes between two computers over an ephemeral encrypted pipe.\n\n")
	fmt.Fprintf(w, "usage:\n\n")
	fmt.Fprintf(w, "  %s [flags] <command> [arguments]\n\n", os.Args[0])
	fmt.Fprintf(w, "commands:\n")
	for key := range subcmds {
		fmt.Fprintf(w, "  %s\n", key)
	}
	fmt.Fprintf(w, "\nflags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	cmd, ok := subcmds[flag.Arg(0)]
	if !ok {
		flag.Usage()
		os.Exit(2)
	}
	cmd(flag.Args()...)
}

func fatalf(format string, v ...interface{}) {
	fmt.Fprintf(flag.CommandLine.Output(), format+"\n", v...)
	os.Exit(1)
}
