package cmd

import (
	"fmt"
	"io"
	"strings"
)

// subcommands lists the names offered by shell completion.
var subcommands = []string{
	"ls", "add", "toggle", "rm", "delete", "save", "load", "serve", "tui",
	"doctor", "config", "path", "completion", "version", "help",
}

// completionCommand prints a completion script for the named shell.
func completionCommand(w io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: todo completion <bash|zsh|fish|powershell>")
	}
	words := strings.Join(subcommands, " ")

	switch strings.ToLower(args[0]) {
	case "bash":
		fmt.Fprintf(w, `# todo bash completion
_todo() {
    local cur="${COMP_WORDS[COMP_CWORD]}"
    if [ "$COMP_CWORD" -eq 1 ]; then
        COMPREPLY=($(compgen -W "%s" -- "$cur"))
    fi
}
complete -F _todo todo
`, words)
	case "zsh":
		fmt.Fprintf(w, `#compdef todo
# todo zsh completion
_todo() {
    local -a cmds
    cmds=(%s)
    if (( CURRENT == 2 )); then
        _describe 'command' cmds
    fi
}
compdef _todo todo
`, words)
	case "fish":
		fmt.Fprintf(w, `# todo fish completion
complete -c todo -f -n '__fish_use_subcommand' -a '%s'
`, words)
	case "powershell", "pwsh":
		fmt.Fprintf(w, `# todo PowerShell completion
Register-ArgumentCompleter -Native -CommandName todo -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)
    '%s' -split ' ' | Where-Object { $_ -like "$wordToComplete*" } |
        ForEach-Object { [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_) }
}
`, words)
	default:
		return fmt.Errorf("unsupported shell: %s", args[0])
	}
	return nil
}
