package shell

import (
	"fmt"

	"github.com/abiosoft/ishell"
	"github.com/juruen/inkrec/config"
	"github.com/juruen/inkrec/recognizer"
)

type ShellCtxt struct {
	Session *recognizer.Session
	Config  config.Config
}

func (ctx *ShellCtxt) prompt() string {
	return fmt.Sprintf("[%s %d]>", ctx.Session.State(), ctx.Session.Strokes().Len())
}

func setupShell(shell *ishell.Shell, ctx *ShellCtxt) {
	shell.SetPrompt(ctx.prompt())

	shell.AddCmd(strokeCmd(ctx))
	shell.AddCmd(startCmd(ctx))
	shell.AddCmd(extendCmd(ctx))
	shell.AddCmd(penCmd(ctx))
	shell.AddCmd(clearCmd(ctx))
	shell.AddCmd(saveCmd(ctx))
	shell.AddCmd(recognizeCmd(ctx))
	shell.AddCmd(recognizeFilesCmd(ctx))
	shell.AddCmd(importCmd(ctx))
	shell.AddCmd(statusCmd(ctx))
}

// RunShell processes args as a single command, or starts the interactive
// shell when args is empty.
func RunShell(ctx *ShellCtxt, args []string) error {
	shell := ishell.New()
	setupShell(shell, ctx)

	if len(args) > 0 {
		return shell.Process(args...)
	}

	shell.Printf("inkrec drawing shell, session %s, canvas %dx%d\n",
		ctx.Session.ID(), ctx.Config.Canvas.Width, ctx.Config.Canvas.Height)
	shell.Run()
	return nil
}
