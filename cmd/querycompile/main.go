// Command querycompile compiles filter and order-by descriptor files for one
// entity of a YAML schema catalog into SQL or into a document filter.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
