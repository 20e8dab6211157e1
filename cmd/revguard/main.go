// revguard — guarded revision ledger CLI.
package main

import "github.com/ppiankov/revguard/internal/cli"

func main() {
	cli.Execute()
}
