// famtree-lint is a custom static analyzer for famtree-core row store usage.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/famtree-core/tools/famtree-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
