package runner

import "strings"

// Command is a parsed console line.
type Command struct {
	Name string
	Arg  string
}

// Command names understood by the runner.
const (
	CmdRun     = "run"
	CmdDebug   = "debug"
	CmdNext    = "next"
	CmdStep    = "step"
	CmdBack    = "back"
	CmdRefresh = "refresh"
	CmdInput   = "input"
	CmdTab     = "tab"
	CmdView    = "view"
	CmdReset   = "reset"
	CmdHelp    = "help"
	CmdExit    = "exit"
)

var aliases = map[string]string{
	"r":    CmdRun,
	"d":    CmdDebug,
	"n":    CmdNext,
	"s":    CmdStep,
	"b":    CmdBack,
	"env":  CmdRefresh,
	"i":    CmdInput,
	"v":    CmdView,
	"h":    CmdHelp,
	"?":    CmdHelp,
	"quit": CmdExit,
	"q":    CmdExit,
}

// ParseCommand interprets a raw line. While the program awaits input, any line
// not starting with ':' is the answer. Otherwise the leading ':' is optional.
func ParseCommand(line string, awaitingInput bool) Command {
	if awaitingInput && !strings.HasPrefix(line, ":") {
		return Command{Name: CmdInput, Arg: line}
	}

	line = strings.TrimPrefix(strings.TrimSpace(line), ":")
	name, arg, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	if full, ok := aliases[name]; ok {
		name = full
	}
	if name != CmdInput {
		arg = strings.TrimSpace(arg)
	}
	return Command{Name: name, Arg: arg}
}

const helpText = `Commands:
  run            run the whole source
  debug          start a debug session and stop at the first error
  next           continue to the next error
  step | s       execute one statement
  back | b       go one step back in history
  refresh | env  re-read variables of the held session
  input <value>  answer a pending input prompt
  tab <name>     show problems, output, debug, timeline, detail, memory or variables
  view           print the current state
  reset          leave the session
  exit | quit    leave the console
While input is pending, type the answer directly and prefix commands with ':'.`
