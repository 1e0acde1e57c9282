package shell

import (
	"context"
	"errors"
	"fmt"

	"github.com/abiosoft/ishell"
	"github.com/juruen/inkrec/encoding/rm"
	"github.com/juruen/inkrec/failure"
	flag "github.com/ogier/pflag"
)

// describe renders a pipeline error the way the drawing app reports it.
func describe(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("Cancelled: %v", err)
	}
	switch failure.KindOf(err) {
	case failure.IO:
		return fmt.Errorf("Error saving drawing: %v", err)
	case failure.ModelLoad:
		return fmt.Errorf("Model not loaded: %v", err)
	default:
		return fmt.Errorf("Recognition Failed: %v", err)
	}
}

func saveCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "save",
		Help: "save the drawing as PNG",
		Func: func(c *ishell.Context) {
			path, err := ctx.Session.Save(context.Background())
			c.SetPrompt(ctx.prompt())
			if err != nil {
				c.Err(fmt.Errorf("Error saving file: %v", err))
				return
			}
			c.Println("Drawing saved successfully!", path)
		},
	}
}

func recognizeCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "recognize",
		Help: "save the drawing and run the recognition model on it",
		Func: func(c *ishell.Context) {
			c.Println("recognizing...")
			out := <-ctx.Session.RecognizeAsync(context.Background())
			c.SetPrompt(ctx.prompt())
			if out.Err != nil {
				c.Err(describe(out.Err))
				return
			}
			c.Println(out.Result.String())
			c.Println("saved:", out.Result.Path)
		},
	}
}

func recognizeFilesCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:     "recognize-files",
		Help:     "run the recognition model on saved PNG files",
		LongHelp: "Usage: recognize-files [-j N] <file.png> ...",
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("recognize-files", flag.ContinueOnError)
			batch := flagSet.Int64P("jobs", "j", ctx.Config.BatchSize, "files recognized in parallel")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}
			files := flagSet.Args()
			if len(files) == 0 {
				c.Err(errors.New("missing files"))
				return
			}

			failed := 0
			for _, r := range ctx.Session.RecognizeFiles(context.Background(), files, *batch) {
				if r.Err != nil {
					failed++
					c.Printf("%s: %v\n", r.Path, describe(r.Err))
					continue
				}
				c.Printf("%s: %s\n", r.Path, r.Result)
			}
			if failed > 0 {
				c.Err(fmt.Errorf("%d of %d files failed", failed, len(files)))
			}
		},
	}
}

func importCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:     "import",
		Help:     "add the pen strokes of a reMarkable .rm page",
		LongHelp: "Usage: import [-s scale] <page.rm>\n\nWithout -s the page is fitted to the canvas.",
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("import", flag.ContinueOnError)
			scale := flagSet.Float64P("scale", "s", 0, "coordinate scale")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}
			argRest := flagSet.Args()
			if len(argRest) == 0 {
				c.Err(errors.New("missing source file"))
				return
			}

			page, err := rm.ReadFile(argRest[0])
			if err != nil {
				c.Err(err)
				return
			}

			s := *scale
			if s <= 0 {
				s = rm.FitScale(ctx.Config.Canvas.Width, ctx.Config.Canvas.Height)
			}
			segs := rm.Segments(page, s)
			for _, seg := range segs {
				ctx.Session.Strokes().Append(seg)
			}

			c.Printf("imported %d segments\n", len(segs))
			c.SetPrompt(ctx.prompt())
		},
	}
}
