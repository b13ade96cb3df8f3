package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tagren/internal/adapters/filesystem"
	"tagren/internal/application/commands"
	"tagren/internal/domain"
	"tagren/internal/ports"
)

// PlanTools are the collaborators of the directory-aware tools.
// Journal may be nil, in which case recent_runs is not offered.
type PlanTools struct {
	FS              ports.FileSystem
	Journal         ports.Journal
	Logger          *slog.Logger
	CaseInsensitive bool
}

// RegisterPlanTools adds the directory-aware tools to the MCP server.
func RegisterPlanTools(s *server.MCPServer, t PlanTools) {
	if t.Logger == nil {
		t.Logger = slog.Default()
	}
	s.AddTool(planRenamesTool(), planRenamesHandler(t))
	s.AddTool(listOrphansTool(), listOrphansHandler())
	if t.Journal != nil {
		s.AddTool(recentRunsTool(), recentRunsHandler(t.Journal))
	}
}

// --- plan_renames ---

func planRenamesTool() mcp.Tool {
	return mcp.NewTool("plan_renames",
		mcp.WithDescription("Preview the final names a batch would get in target_dir, without touching the disk. Names already in target_dir are honoured."),
		mcp.WithString("target_dir",
			mcp.Description("Directory the files would be renamed into"),
			mcp.Required(),
		),
		mcp.WithString("items",
			mcp.Description("Newline-separated file=text lines; file is relative to source_dir unless absolute"),
			mcp.Required(),
		),
		mcp.WithBoolean("duplicates",
			mcp.Description("true: same tags get -1, -2, ... suffixes; false: a second identical tag is a NAME_CONFLICT"),
			mcp.Required(),
		),
		mcp.WithString("source_dir",
			mcp.Description("Directory relative file names are resolved against. Defaults to target_dir."),
		),
	)
}

func planRenamesHandler(t PlanTools) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		targetDir, err := requireDir(req, "target_dir")
		if err != nil {
			return toolError(err)
		}
		duplicates, err := req.RequireBool("duplicates")
		if err != nil {
			return toolError(err)
		}
		sourceDir := req.GetString("source_dir", "")
		if sourceDir == "" {
			sourceDir = targetDir
		}

		reqs, err := commands.ParsePlanLines(req.GetString("items", ""), sourceDir)
		if err != nil {
			return toolError(err)
		}
		if len(reqs) == 0 {
			return toolError(fmt.Errorf("items is empty"))
		}

		cmd := commands.NewPlanCommand(t.FS, t.Logger, targetDir, duplicates, t.CaseInsensitive, reqs)
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		for _, r := range result.Records {
			sb.WriteString(formatRecord(r))
			sb.WriteByte('\n')
		}
		sb.WriteString(result.Message)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func formatRecord(r domain.ItemRecord) string {
	if r.Status != domain.StatusOK {
		return fmt.Sprintf("%s  %s  (%s)", r.OldName, r.Status, r.Base)
	}
	return fmt.Sprintf("%s  ->  %s", r.OldName, r.FinalName)
}

// --- list_orphans ---

func listOrphansTool() mcp.Tool {
	return mcp.NewTool("list_orphans",
		mcp.WithDescription("List staging temporaries (__TMP__<hex>__name) left in a directory by an interrupted run, with the name each one would be restored to."),
		mcp.WithString("dir",
			mcp.Description("Directory to scan"),
			mcp.Required(),
		),
	)
}

func listOrphansHandler() server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dir, err := requireDir(req, "dir")
		if err != nil {
			return toolError(err)
		}
		orphans, err := filesystem.FindOrphans(dir)
		if err != nil {
			return toolError(fmt.Errorf("listing %s: %w", dir, err))
		}
		return formatLines(orphans, "No orphans.", func(path string) string {
			orig, _ := domain.OriginalFromTemp(filepath.Base(path))
			return fmt.Sprintf("%s  ->  %s", path, orig)
		})
	}
}

// --- recent_runs ---

func recentRunsTool() mcp.Tool {
	return mcp.NewTool("recent_runs",
		mcp.WithDescription("Show the most recent rename runs recorded in the journal."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs (default 10)"),
		),
		mcp.WithNumber("run",
			mcp.Description("Show the item outcomes of this run id instead"),
		),
	)
}

func recentRunsHandler(journal ports.Journal) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		history := commands.NewHistoryCommand(journal, req.GetInt("limit", 10))
		history.RunID = int64(req.GetInt("run", 0))
		result, err := history.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if history.RunID > 0 {
			return formatLines(result.Items, "No items recorded.", formatRecord)
		}
		return formatLines(result.Runs, "No runs recorded.", formatRun)
	}
}

func formatRun(r ports.RunInfo) string {
	mode := r.Policy
	if r.DryRun {
		mode += ", dry run"
	}
	line := fmt.Sprintf("#%d  %s  %s -> %s  (%s)  ok=%d failed=%d",
		r.ID, r.StartedAt.Format(time.DateTime), r.InputDir, r.OutputDir, mode, r.OK, r.Failed)
	if r.Error != "" {
		line += "  error: " + r.Error
	}
	return line
}
