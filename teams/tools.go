package teams

import (
	"fmt"

	"github.com/smallnest/teamgraph/config"
	"github.com/smallnest/teamgraph/tool"
	"github.com/tmc/langchaingo/tools"
)

// Toolset holds the tools the workers are built with.
type Toolset struct {
	Search    tools.Tool
	Scraper   tools.Tool
	Python    tools.Tool
	Workspace *tool.Workspace
}

// NewToolset builds the tools described by cfg.
func NewToolset(cfg config.Tools) (*Toolset, error) {
	var (
		search tools.Tool
		err    error
	)
	switch cfg.SearchProvider {
	case "brave":
		search, err = tool.NewBraveSearch(cfg.BraveAPIKey, tool.WithBraveCount(cfg.SearchMaxResults))
	case "tavily", "":
		search, err = tool.NewTavilySearch(cfg.TavilyAPIKey, tool.WithTavilyMaxResults(cfg.SearchMaxResults))
	default:
		err = fmt.Errorf("unsupported search provider %q", cfg.SearchProvider)
	}
	if err != nil {
		return nil, err
	}

	ws, err := tool.NewWorkspace(cfg.WorkingDirectory)
	if err != nil {
		return nil, err
	}

	return &Toolset{
		Search:  search,
		Scraper: tool.NewWebScraper(),
		Python: tool.NewPythonREPL(ws,
			tool.WithPythonInterpreter(cfg.PythonPath),
			tool.WithPythonTimeout(cfg.CodeTimeout)),
		Workspace: ws,
	}, nil
}
