package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/juruen/inkrec/stroke"
	flag "github.com/ogier/pflag"
)

func parsePoint(s string) (stroke.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return stroke.Point{}, fmt.Errorf("invalid point %q, want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return stroke.Point{}, fmt.Errorf("invalid x in %q", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return stroke.Point{}, fmt.Errorf("invalid y in %q", s)
	}
	p := stroke.Point{X: x, Y: y}
	if !p.Finite() {
		return stroke.Point{}, fmt.Errorf("point %q is not finite", s)
	}
	return p, nil
}

func parseXY(args []string) (stroke.Point, error) {
	if len(args) != 2 {
		return stroke.Point{}, errors.New("want two numbers")
	}
	return parsePoint(args[0] + "," + args[1])
}

func strokeCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:     "stroke",
		Help:     "draw one stroke through points, usage: stroke x,y x,y ...",
		LongHelp: "Usage: stroke x,y [x,y ...]\n\nA single point draws a dot.",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(errors.New("missing points"))
				return
			}

			points := make([]stroke.Point, 0, len(c.Args))
			for _, arg := range c.Args {
				p, err := parsePoint(arg)
				if err != nil {
					c.Err(err)
					return
				}
				points = append(points, p)
			}

			ctx.Session.Recorder().Polyline(points...)
			c.SetPrompt(ctx.prompt())
		},
	}
}

func startCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "start",
		Help: "start a stroke, usage: start x y",
		Func: func(c *ishell.Context) {
			p, err := parseXY(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			ctx.Session.Sink().OnStrokeStart(p)
			c.SetPrompt(ctx.prompt())
		},
	}
}

func extendCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "extend",
		Help: "extend the stroke by a drag delta, usage: extend dx dy",
		Func: func(c *ishell.Context) {
			d, err := parseXY(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			ctx.Session.Sink().OnStrokeExtend(d)
			c.SetPrompt(ctx.prompt())
		},
	}
}

func penCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "pen",
		Help: "show or set the pen, usage: pen [-c #rrggbb] [-w width]",
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("pen", flag.ContinueOnError)
			color := flagSet.StringP("color", "c", "", "pen color")
			width := flagSet.Float64P("width", "w", 0, "pen width in pixels")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}

			pen := ctx.Session.Recorder().Pen()
			if *color != "" {
				rgb, err := stroke.ParseRGB(*color)
				if err != nil {
					c.Err(err)
					return
				}
				pen.Color = rgb
			}
			if *width < 0 {
				c.Err(errors.New("width must be positive"))
				return
			}
			if *width > 0 {
				pen.Width = *width
			}

			ctx.Session.Recorder().SetPen(pen)
			c.Printf("pen %s %g\n", pen.Color, pen.Width)
		},
	}
}

func clearCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "clear",
		Help: "remove all strokes",
		Func: func(c *ishell.Context) {
			ctx.Session.Clear()
			c.SetPrompt(ctx.prompt())
		},
	}
}

func statusCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "status",
		Help: "show session state",
		Func: func(c *ishell.Context) {
			pen := ctx.Session.Recorder().Pen()
			c.Printf("session:  %s\n", ctx.Session.ID())
			c.Printf("state:    %s\n", ctx.Session.State())
			c.Printf("segments: %d\n", ctx.Session.Strokes().Len())
			c.Printf("pen:      %s %g\n", pen.Color, pen.Width)
			c.Printf("canvas:   %dx%d\n", ctx.Config.Canvas.Width, ctx.Config.Canvas.Height)
			c.Printf("pictures: %s\n", ctx.Config.PicturesDir)
			c.Printf("model:    %s\n", ctx.Config.ModelPath)
		},
	}
}
