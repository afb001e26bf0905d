package main

import (
	"os"

	"github.com/osvaldoandrade/schemaver/pkg/schemaver"
)

func main() {
	os.Exit(schemaver.Execute())
}
