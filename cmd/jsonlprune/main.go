// jsonlprune prunes code-summarization JSONL files down to a fixed
// whitelist of record fields.
package main

import (
	"os"

	"jsonlprune/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
