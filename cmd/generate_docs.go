package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/intervals-mcp/internal/config"
	"github.com/teemow/intervals-mcp/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools, including
the write tools that are only registered with --enable-write-tools.
The documentation is built from the registered tool definitions, so it
always matches the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	// Doc generation never calls the API, so an empty configuration is enough.
	serverContext, err := server.NewServerContext(context.Background(), &config.Config{})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := newMCPServer()
	if err := registerAllTools(mcpSrv, serverContext, false); err != nil {
		return err
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}

	markdown := generateToolsMarkdown(tools)

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

// writeTools are only registered when write tools are enabled.
var writeTools = map[string]bool{
	"add_or_update_event":         true,
	"delete_event":                true,
	"delete_events_by_date_range": true,
}

// toolCategories lists the documentation sections in output order. A tool
// lands in the first category whose marker is part of its name.
var toolCategories = []struct {
	title  string
	marker string
}{
	{"Activity Tools", "activit"},
	{"Event Tools", "event"},
	{"Wellness Tools", "wellness"},
}

const otherCategory = "Other"

type argumentDoc struct {
	name        string
	kind        string
	required    bool
	description string
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	grouped := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		grouped[category] = append(grouped[category], tool)
	}

	var sections []string
	for _, c := range toolCategories {
		if len(grouped[c.title]) > 0 {
			sections = append(sections, c.title)
		}
	}
	if len(grouped[otherCategory]) > 0 {
		sections = append(sections, otherCategory)
	}

	var sb strings.Builder
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools exposed by intervals-mcp for the Intervals.icu API. ")
	sb.WriteString("This file is generated with `intervals-mcp generate-docs`.\n\n")

	sb.WriteString("## Table of Contents\n\n")
	for _, section := range sections {
		fmt.Fprintf(&sb, "- [%s](#%s) (%d)\n", section,
			strings.ToLower(strings.ReplaceAll(section, " ", "-")), len(grouped[section]))
	}
	sb.WriteString("\n")

	sb.WriteString("## Athlete and API Key Defaults\n\n")
	sb.WriteString("Athlete-scoped tools take optional `athlete_id` and `api_key` arguments. ")
	sb.WriteString("When they are omitted, `ATHLETE_ID` and `API_KEY` from the server environment apply. ")
	sb.WriteString("Tools marked *(write)* are only registered with `--enable-write-tools`.\n\n")

	for _, section := range sections {
		sectionTools := grouped[section]
		sort.Slice(sectionTools, func(i, j int) bool {
			return sectionTools[i].Name < sectionTools[j].Name
		})

		fmt.Fprintf(&sb, "## %s\n\n", section)
		for _, tool := range sectionTools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func getCategoryFromToolName(name string) string {
	for _, c := range toolCategories {
		if strings.Contains(name, c.marker) {
			return c.title
		}
	}
	return otherCategory
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("### " + tool.Name)
	if writeTools[tool.Name] {
		sb.WriteString(" *(write)*")
	}
	sb.WriteString("\n\n")

	if tool.Description != "" {
		sb.WriteString(tool.Description + "\n\n")
	}

	args := toolArguments(tool)
	if len(args) == 0 {
		return sb.String()
	}

	sb.WriteString("**Arguments:**\n")
	for _, arg := range args {
		requirement := "optional"
		if arg.required {
			requirement = "required"
		}
		fmt.Fprintf(&sb, "- `%s` (%s, %s): %s\n", arg.name, arg.kind, requirement, arg.description)
	}
	sb.WriteString("\n")

	return sb.String()
}

// toolArguments returns the tool's input properties sorted by name, required
// arguments first.
func toolArguments(tool mcp.Tool) []argumentDoc {
	args := make([]argumentDoc, 0, len(tool.InputSchema.Properties))
	for name, raw := range tool.InputSchema.Properties {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		arg := argumentDoc{
			name:     name,
			kind:     getPropertyType(prop),
			required: slices.Contains(tool.InputSchema.Required, name),
		}
		arg.description, _ = prop["description"].(string)
		if arg.description == "" {
			arg.description = arg.kind + " parameter"
		}
		args = append(args, arg)
	}

	sort.Slice(args, func(i, j int) bool {
		if args[i].required != args[j].required {
			return args[i].required
		}
		return args[i].name < args[j].name
	})
	return args
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
