// Command hashpw prints a bcrypt hash for seeding the admins table.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nikhilbhutani/bodyshop/internal/auth"
)

func main() {
	cost := flag.Int("cost", auth.DefaultCost, "bcrypt cost")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: hashpw [-cost N] <password>")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	hash, err := auth.HashPassword(flag.Arg(0), *cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
