// cmd/teasaga/main.go
//
// This is the entry point for the teasaga CLI.
//
// Commands:
//   teasaga list             show the demo catalog
//   teasaga run [demo]       open the TUI, optionally straight into a demo
//   teasaga replay [path]    replay scenario files headlessly
//
// Every command works against the .teasaga directory of --dir (default: the
// current directory), creating it on first use.

package main

func main() {
	Execute()
}
