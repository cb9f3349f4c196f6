package cmd

import (
	_ "cursor-keeper/cmd/root"
	_ "cursor-keeper/cmd/server"
	_ "cursor-keeper/cmd/versions"
)
