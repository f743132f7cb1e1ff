package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/teris-io/cli"

	"cc0.dev/compiler/pkg/cast"
	"cc0.dev/compiler/pkg/tacky"
	"cc0.dev/compiler/pkg/x64"
)

var Description = strings.ReplaceAll(`
cc0 compiles a single-file, single-function subset of C down to a native
executable. It runs the full pipeline (lex, parse, validate, lower to TACKY,
generate x64, legalise, emit assembly) and then shells out to the system
compiler to assemble and link, unless told to stop earlier.
`, "\n", " ")

var Cc0 = cli.New(Description).
	WithArg(cli.NewArg("input", "The C source file to compile")).
	WithOption(cli.NewOption("output", "Path for the compiled executable (or assembly, with -S)").WithType(cli.TypeString)).
	WithOption(cli.NewOption("lex", "Stop after lexing, print the token stream").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("parse", "Stop after parsing, print the C AST").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("validate", "Stop after semantic analysis").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("tacky", "Stop after lowering, print TACKY instructions").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("codegen", "Stop after legalised x64 generation, print x64 instructions").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("S", "Stop after emitting assembly (skip assemble/link)").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("verbose", "Log each pipeline stage as it completes").WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Println("ERROR: no input file provided, use --help")
		return -1
	}
	input := args[0]

	_, verbose := options["verbose"]
	logf := func(format string, v ...interface{}) {
		if verbose {
			log.Printf(format, v...)
		}
	}

	source, err := os.ReadFile(input)
	if err != nil {
		fmt.Printf("ERROR: unable to open input file: %s\n", err)
		return -1
	}

	tokens, err := cast.Lex(source)
	if err != nil {
		fmt.Printf("ERROR: unable to complete 'lex' pass: %s\n", err)
		return -1
	}
	logf("lex: produced %d tokens", len(tokens))
	if _, stop := options["lex"]; stop {
		fmt.Printf("%+v\n", tokens)
		return 0
	}

	parser := cast.NewParser(tokens)
	program, err := parser.Parse()
	if err != nil {
		fmt.Printf("ERROR: unable to complete 'parse' pass: %s\n", err)
		return -1
	}
	logf("parse: built the C AST for function %q", program.Function.Name)
	if _, stop := options["parse"]; stop {
		fmt.Printf("%+v\n", program)
		return 0
	}

	resolved, err := cast.NewVariableResolver().Resolve(program)
	if err != nil {
		fmt.Printf("ERROR: unable to complete 'validate' pass (variable resolution): %s\n", err)
		return -1
	}
	labelled, err := cast.NewLoopLabeller().Label(resolved)
	if err != nil {
		fmt.Printf("ERROR: unable to complete 'validate' pass (loop labelling): %s\n", err)
		return -1
	}
	logf("validate: variable resolution and loop labelling succeeded")
	if _, stop := options["validate"]; stop {
		return 0
	}

	lowered, err := tacky.NewLowerer().Lower(labelled)
	if err != nil {
		fmt.Printf("ERROR: unable to complete 'tacky' pass: %s\n", err)
		return -1
	}
	logf("tacky: lowered to %d instructions", len(lowered.Function.Instructions))
	if _, stop := options["tacky"]; stop {
		fmt.Printf("%+v\n", lowered)
		return 0
	}

	codegen := x64.NewCodeGenerator(lowered)
	generated, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: unable to complete 'codegen' pass: %s\n", err)
		return -1
	}
	legalised, err := x64.Run(generated)
	if err != nil {
		fmt.Printf("ERROR: unable to complete 'codegen' pass (legalisation): %s\n", err)
		return -1
	}
	logf("codegen: legalised %d x64 instructions", len(legalised.Function.Instructions))
	if _, stop := options["codegen"]; stop {
		fmt.Printf("%+v\n", legalised)
		return 0
	}

	assembly, err := x64.NewEmitter(hostPlatform()).Emit(legalised)
	if err != nil {
		fmt.Printf("ERROR: unable to complete 'emit' pass: %s\n", err)
		return -1
	}
	logf("emit: produced %d bytes of assembly", len(assembly))

	_, stopAtAssembly := options["S"]
	asmPath := outputPath(input, options["output"], stopAtAssembly)

	if err := os.WriteFile(asmPath, []byte(assembly), 0644); err != nil {
		fmt.Printf("ERROR: unable to write assembly output: %s\n", err)
		return -1
	}
	if stopAtAssembly {
		return 0
	}

	binPath := options["output"]
	if binPath == "" {
		binPath = strings.TrimSuffix(input, filepath.Ext(input))
	}
	if err := assembleAndLink(asmPath, binPath); err != nil {
		fmt.Printf("ERROR: unable to complete 'assemble/link' pass: %s\n", err)
		return -1
	}
	logf("assemble/link: wrote executable %q", binPath)

	return 0
}

// outputPath resolves the .s file to write the emitted assembly to: the
// user's --output path directly when -S stops the pipeline there, or a
// sibling temp-looking .s file (reused as input to the assembler) otherwise.
func outputPath(input, requested string, stopAtAssembly bool) string {
	if stopAtAssembly && requested != "" {
		return requested
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".s"
}

// assembleAndLink shells out to the system compiler driver to turn the
// emitted assembly into a native executable, honoring $CC when set (the
// driver itself never re-implements an assembler or linker).
func assembleAndLink(asmPath, binPath string) error {
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	cmd := exec.Command(cc, asmPath, "-o", binPath)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	return cmd.Run()
}

// hostPlatform maps GOOS to the x64.Platform the emitter needs to decide
// function-symbol prefixing (SPEC_FULL.md §4.8); any non-Darwin target is
// treated as the Linux ELF convention.
func hostPlatform() x64.Platform {
	if runtime.GOOS == "darwin" {
		return x64.Darwin
	}
	return x64.Linux
}

func main() { os.Exit(Cc0.Run(os.Args, os.Stdout)) }
