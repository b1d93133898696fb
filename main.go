package main

import (
	"fmt"
	"os"
	"strings"

	"inkwell/service"
)

const cliVersion = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("inkwell version %s\n", cliVersion)
	case "serve":
		service.RunServer(os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	helpText := `Usage: inkwell <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve [options]                Run the blog service.
    -config <path>               Config file (default inkwell.yaml).
    -addr <addr>                 HTTP listen address.
    -store <url>                 Object store URL (mem://, badger://path, file://path).
`
	fmt.Println(helpText)
}
