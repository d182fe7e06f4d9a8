// SPDX-License-Identifier: MPL-2.0

// bpipe launches, records, and replays pipeline runs.
package main

import cmd "bpipe-cli/cmd/bpipe"

func main() {
	cmd.Execute()
}
