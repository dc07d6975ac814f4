package main

import (
	"github.com/samber/lo"
	"github.com/streamgrab/streamgrab/cmd"
	"github.com/streamgrab/streamgrab/config"
	"github.com/streamgrab/streamgrab/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())
	cmd.Execute()
}
