// mapnikgen renders Mapnik XML styles from templates and re-renders them on
// every change.
package main

import (
	"os"

	"github.com/hupe1980/mapnikgen/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
