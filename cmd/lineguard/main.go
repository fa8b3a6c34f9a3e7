// lineguard — emergency guardian for per-collateral debt ceilings.
package main

import "github.com/ppiankov/lineguard/internal/cli"

func main() {
	cli.Execute()
}
