// cmd/emerald/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"emerald/internal/code"
	"emerald/internal/compiler"
	"emerald/internal/frame"
	"emerald/internal/interp"
	"emerald/internal/lexer"
	"emerald/internal/object"
	"emerald/internal/parser"
	"emerald/internal/process"
	"emerald/internal/scheduler"

	_ "emerald/internal/modules/collections"
	_ "emerald/internal/modules/core"
	_ "emerald/internal/modules/crypto"
	_ "emerald/internal/modules/database"
	_ "emerald/internal/modules/datetime"
	_ "emerald/internal/modules/gc"
	_ "emerald/internal/modules/net"
	_ "emerald/internal/modules/process"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "run":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: emerald run <file.em>")
			os.Exit(1)
		}
		runFile(args[1])
	case "ast":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: emerald ast <file.em>")
			os.Exit(1)
		}
		printAST(args[1])
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Println("emerald 0.1.0")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`emerald - a prototype-based scripting language runtime

Usage:
  emerald run <file.em>   compile and execute a script
  emerald ast <file.em>   print the compiled bytecode tree
  emerald help            show this message
  emerald version         print the version`)
}

// compileFile lexes, parses, and compiles a source file, recovering from
// the parser's panicked *parser.ParseError so callers get a clean error
// value instead of a crash.
func compileFile(filename string) (c *code.Code, err error) {
	src, readErr := os.ReadFile(filename)
	if readErr != nil {
		return nil, readErr
	}
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*parser.ParseError); ok {
				err = fmt.Errorf("%s:%d: %s", filename, pe.Line, pe.Message)
				return
			}
			err = fmt.Errorf("%s: %v", filename, r)
		}
	}()
	tokens := lexer.NewScanner(string(src)).ScanTokens()
	stmts := parser.NewParser(tokens).Parse()
	c = compiler.Compile(stmts)
	return c, nil
}

func printAST(filename string) {
	c, err := compileFile(filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(c.String())
}

// fileLoader resolves `import name` for names that are not native modules
// by reading name(.em) relative to the running script's directory.
func fileLoader(baseDir string) process.SourceLoader {
	return func(name string) (*code.Code, error) {
		return compileFile(filepath.Join(baseDir, name+".em"))
	}
}

func runFile(filename string) {
	compiled, err := compileFile(filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "", 0)
	it := interp.New()
	sched := scheduler.New(0, logger)
	sched.SetStepFunc(it.Step)
	sched.SetInvoker(it.Invoke)
	sched.Start()
	defer sched.Stop()

	baseDir := filepath.Dir(filename)
	var proc *process.Process
	sched.Spawn(func(p *process.Process) {
		proc = p
		p.Loader = fileLoader(baseDir)
		mod := object.NewModule(p.Heap(), p.Protos().Module, "main", compiled, false)
		p.Globals = mod
		entry := frame.NewFrame(compiled, mod)
		p.Stack.Push(entry)
	})
	<-proc.Done()

	reason := proc.ExitReason()
	if !reason.Normal {
		msg := "unknown error"
		if reason.Error != nil {
			msg = *reason.Error
		}
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}
