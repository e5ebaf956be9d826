// pivotpainter bakes object pivots, rotations and hierarchy data of a scene
// into attribute textures.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/pivot-painter/internal/config"
	"github.com/Faultbox/pivot-painter/internal/logger"
	"github.com/Faultbox/pivot-painter/internal/pipeline"
	"github.com/Faultbox/pivot-painter/pkg/export"
	"github.com/Faultbox/pivot-painter/pkg/grf"
	"github.com/Faultbox/pivot-painter/pkg/layout"
	"github.com/Faultbox/pivot-painter/pkg/packing"
	"github.com/Faultbox/pivot-painter/pkg/scene"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "layout":
		cmdLayout(args)
	case "options":
		cmdOptions()
	case "models":
		cmdModels(args)
	case "order":
		cmdOrder(args)
	case "hierarchy":
		cmdHierarchy(args)
	case "prepare":
		cmdPrepare(args)
	case "textures":
		cmdTextures(args)
	case "split":
		cmdSplit(args)
	case "copy-uvs":
		cmdCopyUVs(args)
	case "run":
		cmdRun(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pivotpainter - bake pivots and hierarchy into attribute textures

Usage:
  pivotpainter <command> [options] <scene> [objects...]

Scenes are YAML scene files or .rsm models. Without object names every mesh
is selected in file order; the order given is the texel order.

Commands:
  layout <count>                     Show the texture size for a count
  options                            List the texture channel options
  models <file.grf> [pattern]        List RSM models in a GRF archive
  order <scene> objects...           Write SelectionOrder tags in the given order
  hierarchy <scene> [objects...]     Parent objects under base meshes by overlap
  prepare <scene> [objects...]       Set pivots and rotations, root to leaf
  textures <scene> [objects...]      Pack textures and write texel UVs
  split <scene> objects...           Separate meshes into loose parts
  copy-uvs <scene> sources...        Copy UVs onto the -target object
  run <scene> [objects...]           hierarchy (with -bases), prepare, textures

Common options:
  -config <file>   Config file (default: ./pivotpainter.yaml)
  -debug           Debug logging
  -log-file <file> Also log to a rotated file
  -workers <n>     Parallel workers (0 = all CPUs)
  -o <file>        Write the changed scene as YAML
  -grf <archive>   Read <scene> as an RSM path inside a GRF archive

Examples:
  pivotpainter layout 7
  pivotpainter hierarchy -bases trunk -o tree.yaml tree.yaml
  pivotpainter run -bases trunk -save -folder out tree.yaml
  pivotpainter prepare -grf data.grf -o tree.yaml data/model/tree.rsm`)
}

// command is the state shared by the scene commands.
type command struct {
	name    string
	fs      *flag.FlagSet
	flags   config.Flags
	out     string
	archive string
	cfg     *config.Config
}

func newCommand(name string) *command {
	c := &command{name: name, fs: flag.NewFlagSet(name, flag.ExitOnError)}
	c.flags.Register(c.fs)
	c.fs.StringVar(&c.out, "o", "", "Write the changed scene to this YAML file")
	c.fs.StringVar(&c.archive, "grf", "", "Read the scene as an RSM model from this GRF archive")
	return c
}

// parse parses args, loads the config and sets up logging. It returns the
// positional arguments.
func (c *command) parse(args []string, apply func(*config.Config)) []string {
	c.fs.Parse(args)

	cfg, err := config.Load(c.flags)
	if err != nil {
		fail(err)
	}
	if apply != nil {
		apply(cfg)
		if err := cfg.Validate(); err != nil {
			fail(err)
		}
	}
	file := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		file = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, file); err != nil {
		fail(err)
	}
	c.cfg = cfg
	return c.fs.Args()
}

// load reads the scene named by the first argument and selects the rest.
func (c *command) load(args []string) (*scene.Scene, *scene.Selection) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: pivotpainter %s [options] <scene> [objects...]\n", c.name)
		os.Exit(1)
	}
	s, err := c.loadScene(args[0])
	if err != nil {
		fail(err)
	}
	sel, err := pipeline.Select(s, args[1:])
	if err != nil {
		fail(err)
	}
	logger.Log.Debug("Scene loaded",
		zap.String("path", args[0]),
		zap.Int("objects", len(s.Objects)),
		zap.Int("selected", sel.Len()))
	return s, sel
}

func (c *command) loadScene(path string) (*scene.Scene, error) {
	if c.archive == "" {
		return scene.Load(path)
	}
	archive, err := grf.Open(c.archive)
	if err != nil {
		return nil, err
	}
	defer archive.Close()
	return scene.LoadRSMFrom(archive, path)
}

func (c *command) newPipeline() *pipeline.Pipeline {
	return pipeline.New(c.cfg, logger.Log)
}

// save writes the scene when -o was given.
func (c *command) save(s *scene.Scene) {
	if c.out == "" {
		return
	}
	if err := s.SaveTo(c.out); err != nil {
		fail(err)
	}
	logger.Log.Info("Scene saved", zap.String("path", c.out))
}

func fail(err error) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func cmdLayout(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pivotpainter layout <count>")
		os.Exit(1)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fail(err)
	}
	size, err := layout.Dimensions(n)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Objects: %d\n", n)
	fmt.Printf("Size:    %s\n", size)
	fmt.Printf("Unused:  %d\n", size.Texels()-n)
}

func cmdOptions() {
	list := func(title string, options []packing.Option) {
		fmt.Println(title)
		for _, o := range options {
			flags := ""
			if o.RGBA {
				flags = " [rgba]"
			}
			hdr := "hdr"
			if o.Packer != nil && o.Packer.Supports(false) {
				hdr += "+ldr"
			}
			fmt.Printf("  %-30s %-24s %-8s %s%s\n", o.Key, o.Suffix, hdr, o.Description, flags)
		}
		fmt.Println()
	}
	list("RGB options:", packing.RGBOptions())
	list("Alpha options:", packing.AlphaOptions())
}

func cmdModels(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pivotpainter models <file.grf> [pattern]")
		os.Exit(1)
	}
	archive, err := grf.Open(args[0])
	if err != nil {
		fail(err)
	}
	defer archive.Close()

	pattern := ""
	if len(args) > 1 {
		pattern = strings.ToLower(args[1])
	}
	count := 0
	for _, name := range archive.List() {
		if !strings.HasSuffix(name, ".rsm") || !strings.Contains(name, pattern) {
			continue
		}
		fmt.Println(name)
		count++
	}
	fmt.Printf("\n%d models\n", count)
}

func cmdOrder(args []string) {
	c := newCommand("order")
	start := c.fs.Int("start", 0, "First SelectionOrder number (default from config)")
	same := c.fs.Bool("same", false, "Give every object the same number")
	rest := c.parse(args, func(cfg *config.Config) {
		if *start > 0 {
			cfg.SelectionOrder.Start = *start
		}
		if *same {
			cfg.SelectionOrder.SameNumber = true
		}
	})
	if len(rest) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: pivotpainter order [options] <scene> objects...")
		os.Exit(1)
	}
	s, sel := c.load(rest)
	if err := c.newPipeline().Order(sel); err != nil {
		fail(err)
	}
	c.save(s)
}

func hierarchyFlags(c *command) func(*config.Config) {
	bases := c.fs.String("bases", "", "Comma separated base meshes")
	mode := c.fs.String("mode", "", "overlap or nearest (default from config)")
	return func(cfg *config.Config) {
		if b := splitList(*bases); b != nil {
			cfg.Hierarchy.Bases = b
		}
		if *mode != "" {
			cfg.Hierarchy.Mode = *mode
		}
	}
}

func textureFlags(c *command) func(*config.Config) {
	save := c.fs.Bool("save", false, "Save the textures")
	folder := c.fs.String("folder", "", "Texture folder (implies -save)")
	format := c.fs.String("format", "", "LDR image format: png or tiff")
	seed := c.fs.Uint64("seed", 0, "Seed for random values (0 = config)")
	return func(cfg *config.Config) {
		if *save {
			cfg.Textures.Save = true
		}
		if *folder != "" {
			cfg.Textures.Save = true
			cfg.Textures.Folder = *folder
		}
		if *format != "" {
			cfg.Textures.LDRFormat = export.Format(*format)
		}
		if *seed != 0 {
			cfg.Textures.Seed = *seed
		}
	}
}

func both(fns ...func(*config.Config)) func(*config.Config) {
	return func(cfg *config.Config) {
		for _, fn := range fns {
			fn(cfg)
		}
	}
}

func cmdHierarchy(args []string) {
	c := newCommand("hierarchy")
	rest := c.parse(args, hierarchyFlags(c))
	s, sel := c.load(rest)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := c.newPipeline().InferHierarchy(ctx, s, sel)
	if err != nil {
		fail(err)
	}
	for _, a := range res.Assignments {
		fmt.Printf("%s -> %s\n", a.Child.Name, a.Parent.Name)
	}
	c.save(s)
}

func cmdPrepare(args []string) {
	c := newCommand("prepare")
	rest := c.parse(args, nil)
	s, sel := c.load(rest)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	report, err := c.newPipeline().SolvePivots(ctx, sel)
	if err != nil {
		fail(err)
	}
	for _, sol := range report.Solutions {
		fmt.Printf("%-24s pivot %v (%s)\n", sol.Object.Name, sol.Pivot, sol.Source)
	}
	c.save(s)
}

func cmdTextures(args []string) {
	c := newCommand("textures")
	rest := c.parse(args, textureFlags(c))
	s, sel := c.load(rest)

	p := c.newPipeline()
	if _, err := p.Validate(s, sel); err != nil {
		fail(err)
	}
	textures, files, err := p.Textures(sel)
	if err != nil {
		fail(err)
	}
	for _, tex := range textures {
		fmt.Printf("%s %s\n", tex.Name, tex.Size)
	}
	for _, f := range files {
		fmt.Println(f)
	}
	c.save(s)
}

func cmdSplit(args []string) {
	c := newCommand("split")
	rest := c.parse(args, nil)
	if len(rest) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: pivotpainter split [options] <scene> objects...")
		os.Exit(1)
	}
	s, sel := c.load(rest)
	parts, err := c.newPipeline().Split(s, sel)
	if err != nil {
		fail(err)
	}
	for _, o := range parts {
		fmt.Println(o.Name)
	}
	c.save(s)
}

func cmdCopyUVs(args []string) {
	c := newCommand("copy-uvs")
	target := c.fs.String("target", "", "Object receiving the UVs")
	precision := c.fs.Int("precision", 0, "Decimals positions are rounded to (default from config)")
	retry := c.fs.Bool("retry", false, "Retry unmatched loops at coarser precision")
	rest := c.parse(args, func(cfg *config.Config) {
		if *target != "" {
			cfg.CopyUVs.Target = *target
		}
		if *precision > 0 {
			cfg.CopyUVs.Precision = *precision
		}
		if *retry {
			cfg.CopyUVs.Retry = true
		}
	})
	if len(rest) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: pivotpainter copy-uvs -target <object> [options] <scene> sources...")
		os.Exit(1)
	}
	s, sel := c.load(rest)
	res, err := c.newPipeline().CopyUVs(s, sel.Objects())
	if err != nil {
		fail(err)
	}
	fmt.Printf("Matched:   %d\n", res.Matched)
	fmt.Printf("Retried:   %d\n", res.Retried)
	fmt.Printf("Unmatched: %d\n", res.Unmatched)
	c.save(s)
	if !res.OK() {
		os.Exit(2)
	}
}

func cmdRun(args []string) {
	c := newCommand("run")
	rest := c.parse(args, both(hierarchyFlags(c), textureFlags(c)))
	s, sel := c.load(rest)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := c.newPipeline().Run(ctx, s, sel)
	if err != nil {
		fail(err)
	}
	for _, tex := range res.Textures {
		fmt.Printf("%s %s\n", tex.Name, tex.Size)
	}
	for _, f := range res.Files {
		fmt.Println(f)
	}
	c.save(s)
	logger.Sync()
}
