// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/artinav/artinav/cmd/artinav"

func main() {
	cmd.Execute()
}
