package shell

import (
	"github.com/chzyer/readline"

	"github.com/domino14/minigo/config"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("analyze"),
	readline.PcItem("range"),
	readline.PcItem("eval"),
	readline.PcItem("moves"),
	readline.PcItem("set",
		readline.PcItem(config.ConfigThreads),
		readline.PcItem(config.ConfigTTSizePower),
	),
	readline.PcItem("ttstats"),
	readline.PcItem("summary",
		readline.PcItem("-source",
			readline.PcItem("session"),
			readline.PcItem("db"),
		),
	),
	readline.PcItem("export",
		readline.PcItem("csv"),
		readline.PcItem("yaml"),
	),
	readline.PcItem("import",
		readline.PcItem("csv"),
		readline.PcItem("yaml"),
	),
	readline.PcItem("script"),
	readline.PcItem("help",
		readline.PcItem("range"),
		readline.PcItem("moves"),
		readline.PcItem("script"),
		readline.PcItem("set"),
		readline.PcItem("summary"),
		readline.PcItem("import"),
	),
	readline.PcItem("exit"),
)
