package commands

import "strings"

// Kind identifica un comando del usuario.
type Kind int

const (
	KindUnknown Kind = iota
	KindStart
	KindHelp
	KindAdd
	KindRemove
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindHelp:
		return "help"
	case KindAdd:
		return "add"
	case KindRemove:
		return "remove"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Command es un comando ya parseado, independiente del transporte.
type Command struct {
	Kind Kind
	Name string   // tal y como llegó, sin "/" ni "@bot"
	Args []string // argumentos separados por espacios
}

// Parse interpreta un mensaje tipo "/add 0xabc… Trump Whale".
// Acepta el sufijo "@NombreDelBot" que añade Telegram en grupos.
// Un texto que no empieza por "/" devuelve ok=false.
func Parse(text string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}

	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	cmd := Command{Name: name, Args: fields[1:]}

	switch strings.ToLower(name) {
	case "start":
		cmd.Kind = KindStart
	case "help":
		cmd.Kind = KindHelp
	case "add":
		cmd.Kind = KindAdd
	case "remove", "rm":
		cmd.Kind = KindRemove
	case "list", "ls":
		cmd.Kind = KindList
	default:
		cmd.Kind = KindUnknown
	}
	return cmd, true
}
