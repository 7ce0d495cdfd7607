// Command backoffice browses and edits back-office resources from the
// terminal and serves a local document store over HTTP.
package main

import "github.com/mesh-intelligence/backoffice/internal/cli"

func main() {
	cli.Execute()
}
