// Command fieldcheck compiles a profile field list and prints the derived fields,
// so a list can be checked before it is saved through the admin API.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charlesng35/userprofile/internal/fields"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type report struct {
	Format  fields.Format        `json:"format"`
	Fields  fields.FieldList     `json:"fields"`
	Context fields.Context       `json:"context,omitempty"`
	Form    []fields.FormElement `json:"form,omitempty"`
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("fieldcheck", flag.ContinueOnError)
	fs.SetOutput(stdout)

	var (
		file       string
		formatName string
		ctxName    string
	)
	fs.StringVar(&file, "file", "-", "Field list to compile, or - for stdin")
	fs.StringVar(&formatName, "format", "auto", "Syntax of the field list: auto, ini, xml, json or yaml")
	fs.StringVar(&ctxName, "context", "", "Also render the blank form of this context")

	if err := fs.Parse(args); err != nil {
		return err
	}

	format, err := fields.ParseFormat(formatName)
	if err != nil {
		return err
	}

	src, err := readSource(file, stdin)
	if err != nil {
		return err
	}

	def, err := fields.Compile(src, format)
	if err != nil {
		return err
	}

	out := report{Format: def.Format, Fields: def.Fields}
	if strings.TrimSpace(ctxName) != "" {
		ctx, err := fields.ParseContext(ctxName)
		if err != nil {
			return err
		}
		out.Context = ctx
		out.Form = fields.Fieldset(def.Fields, ctx, nil)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readSource(file string, stdin io.Reader) (string, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read field list: %w", err)
	}
	return string(data), nil
}
