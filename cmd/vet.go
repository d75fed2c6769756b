package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"protovet/internal/dialect"
	"protovet/internal/proto"
	"protovet/internal/reconcile"
	"protovet/internal/relation"
)

var (
	protoFile   string
	protoDir    string
	messageName string
	tableName   string
	jsonOutput  bool
)

var vetCmd = &cobra.Command{
	Use:   "vet",
	Short: "Check proto messages against the live database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := protoPaths()
		if err != nil {
			return err
		}

		schema, err := parseAll(paths)
		if err != nil {
			return err
		}

		// single-file runs may restrict the check to one message, defaulting
		// to the file stem in CamelCase
		extraOverrides := map[string]string{}
		if protoFile != "" && protoDir == "" {
			name := messageName
			if name == "" {
				name = camelCase(stem(protoFile))
				log.Printf("--message not specified, assuming message '%s'", name)
			}
			msg := schema.Message(name)
			if msg == nil {
				return fmt.Errorf("could not find message %s in %s", name, protoFile)
			}
			schema = &proto.Schema{Package: schema.Package, Imports: schema.Imports,
				Messages: []*proto.Message{msg}, Enums: schema.Enums}
			if tableName != "" {
				extraOverrides[name] = tableName
			}
		}

		target := SchemaName
		if target == "" {
			target = schema.Package
		}
		d := dialect.Get(DriverName)
		log.Printf("Using dialect: %s", d.Name())

		log.Println("Introspecting database schema...")
		model, err := relation.Introspect(DB, d, target)
		if err != nil {
			return err
		}
		log.Printf("Found %d tables in schema %q", len(model.Tables), model.Schema)

		report := reconcile.Reconcile(schema, model, vetResolver(extraOverrides), vetOptions())

		if jsonOutput {
			if err := renderJSON(os.Stdout, report); err != nil {
				return err
			}
		} else {
			renderText(os.Stdout, report)
		}

		if report.HasErrors() {
			os.Exit(2)
		}
		return nil
	},
}

func init() {
	vetCmd.Flags().StringVarP(&protoFile, "file", "f", "", "Proto file to check")
	vetCmd.Flags().StringVarP(&protoDir, "dir", "d", "", "Directory of proto files to check")
	vetCmd.Flags().StringVarP(&messageName, "message", "m", "", "Message name to check (single-file mode)")
	vetCmd.Flags().StringVarP(&tableName, "table", "t", "", "Table name override (single-file mode)")
	vetCmd.Flags().BoolVar(&jsonOutput, "json", false, "Render the report as JSON")
	vetCmd.Flags().Bool("extra-columns", false, "Report table columns with no corresponding field")
	vetCmd.Flags().String("convention", "", "Naming convention (snake_plural, snake_singular, explicit)")
	vetCmd.Flags().String("embedding", "", "Embedding policy for message fields (foreign_key, inline_prefixed)")
	vetCmd.Flags().Bool("case-sensitive", false, "Match table and column names case-sensitively")

	viper.BindPFlag("vet.report_extra_columns", vetCmd.Flags().Lookup("extra-columns"))
	viper.BindPFlag("naming.convention", vetCmd.Flags().Lookup("convention"))
	viper.BindPFlag("vet.embedding_policy", vetCmd.Flags().Lookup("embedding"))
	viper.BindPFlag("naming.case_sensitive", vetCmd.Flags().Lookup("case-sensitive"))

	RootCmd.AddCommand(vetCmd)
}

// protoPaths lists the files to check, sorted for a stable merge order.
func protoPaths() ([]string, error) {
	switch {
	case protoDir != "":
		paths, err := filepath.Glob(filepath.Join(protoDir, "*.proto"))
		if err != nil {
			return nil, fmt.Errorf("failed to list proto files: %w", err)
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("no .proto files found in %s", protoDir)
		}
		sort.Strings(paths)
		return paths, nil
	case protoFile != "":
		return []string{protoFile}, nil
	default:
		return nil, fmt.Errorf("no --file or --dir specified")
	}
}

// parseAll parses every file concurrently, then merges in path order so the
// duplicate-message check and the report order stay deterministic.
func parseAll(paths []string) (*proto.Schema, error) {
	files := make([]*proto.File, len(paths))
	errs := make([]error, len(paths))

	var bar *uiprogress.Bar
	if len(paths) > 1 {
		uiprogress.Start()
		bar = uiprogress.AddBar(len(paths)).AppendCompleted().PrependElapsed()
	}

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			src, err := os.ReadFile(path)
			if err != nil {
				errs[i] = fmt.Errorf("failed to read %s: %w", path, err)
				return
			}
			files[i], errs[i] = proto.Parse(filepath.Base(path), string(src))
			if bar != nil {
				bar.Incr()
			}
		}(i, path)
	}
	wg.Wait()
	if bar != nil {
		uiprogress.Stop()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	schema, err := proto.Merge(files...)
	if err != nil {
		return nil, err
	}
	log.Printf("Parsed %d proto file(s), %d top-level message(s)", len(paths), len(schema.Messages))
	return schema, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// camelCase turns a snake_case file stem into the CamelCase message name
// the file is assumed to declare.
func camelCase(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
