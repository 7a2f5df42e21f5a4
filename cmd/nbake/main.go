// Command nbake watches directories and commits their changes to git once
// they have been quiet for a while.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
