package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"coatpath/document"
	"coatpath/gcode"
	"coatpath/masking"
	"coatpath/pathgen"
	"coatpath/planner"
	"coatpath/preview"
	"coatpath/validation"
)

func main() {
	// Define command line flags
	var (
		outputFile  = flag.String("o", "", "Output G-code file (default: stdout)")
		profileName = flag.String("profile", "grbl", "Post-processor profile: grbl, marlin, generic")
		machineFile = flag.String("machine", "", "Machine profile TOML overriding project settings")
		validate    = flag.Bool("validate", false, "Validate the planned toolpath before writing output")
		showPreview = flag.Bool("preview", false, "Preview the toolpath in the terminal before writing output")
		progress    = flag.Bool("progress", false, "Report planning progress on stderr")
		help        = flag.Bool("help", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] project.json\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Plans coating toolpaths from a project file and writes G-code.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s board.json                       # Plan and print G-code\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -o board.gcode board.json        # Write to a file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -profile marlin board.json       # Marlin dialect\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -machine rig.toml board.json     # Apply machine overrides\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -validate -preview board.json    # Check and view before writing\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, args[0], *outputFile, *profileName, *machineFile, *validate, *showPreview, *progress); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, projectFile, outputFile, profileName, machineFile string, validate, showPreview, progress bool) error {
	doc, err := document.Load(projectFile)
	if err != nil {
		return err
	}

	if machineFile != "" {
		mp, err := document.LoadMachineProfile(machineFile)
		if err != nil {
			return err
		}
		doc.Settings = mp.Apply(doc.Settings)
		if mp.Name != "" {
			fmt.Fprintf(os.Stderr, "Applied machine profile: %s\n", mp.Name)
		}
	}

	profile, err := gcode.ProfileByName(profileName)
	if err != nil {
		return err
	}

	settings := doc.Settings
	masks := masking.NewEngine(settings, doc.Masks())
	rec := planner.NewRecorder()

	var opts []planner.Option
	if progress {
		opts = append(opts, planner.WithProgress(func(percent float64, message string) {
			fmt.Fprintf(os.Stderr, "  %3.0f%% %s\n", percent, message)
		}))
	}

	shapes := doc.CoatedShapes()
	if len(shapes) == 0 {
		return fmt.Errorf("project has no shapes to coat")
	}

	for _, shape := range shapes {
		label := shape.Name
		if label == "" {
			label = shape.ID
		}

		if masks.IsFullyMasked(shape) {
			fmt.Fprintf(os.Stderr, "Skipping %s: fully masked\n", label)
			continue
		}

		raw, err := pathgen.Generate(shape, settings)
		if err != nil {
			return err
		}
		segs := masks.FilterSegments(raw, shape)
		if len(segs) == 0 {
			fmt.Fprintf(os.Stderr, "Skipping %s: nothing left to coat after masking\n", label)
			continue
		}

		p := planner.New(settings, masks, rec, opts...)
		if err := p.PlanShape(ctx, shape, segs); err != nil {
			return fmt.Errorf("planning %s: %w", label, err)
		}
	}

	if validate {
		issues := validation.NewStreamValidator(masks).Validate(rec.Ops())
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "Validation: %s\n", issue)
		}
		if len(issues) > 0 {
			return fmt.Errorf("toolpath failed validation with %d issue(s)", len(issues))
		}
		fmt.Fprintf(os.Stderr, "Toolpath validated: %d instruction(s) clean\n", len(rec.Ops()))
	}

	if showPreview {
		if err := preview.Show(doc.Name, rec.Ops(), masks.Masks()); err != nil {
			return fmt.Errorf("preview: %w", err)
		}
	}

	var out io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := gcode.NewWriter(out, gcode.Config{Profile: profile, Settings: settings, JobName: doc.Name})
	w.Preamble()
	rec.Replay(w)
	w.Postamble()
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing gcode: %w", err)
	}

	if w.CoatMoves() == 0 {
		fmt.Fprintf(os.Stderr, "Warning: job contains no coating moves\n")
	} else if outputFile != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d coating moves to %s\n", w.CoatMoves(), outputFile)
	}
	return nil
}
