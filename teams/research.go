package teams

import (
	"github.com/smallnest/teamgraph/prebuilt"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

const (
	ResearchTeam       = "research_team"
	ResearchSupervisor = "research_team_supervisor"
	SearchWorker       = "search"
	WebScraperWorker   = "web_scraper"
)

// NewResearchTeam builds the team that searches the web and reads pages.
func NewResearchTeam(model llms.Model, search, scraper tools.Tool) (*prebuilt.Team, error) {
	searchWorker, err := prebuilt.NewWorker(SearchWorker, model, []tools.Tool{search})
	if err != nil {
		return nil, err
	}
	scraperWorker, err := prebuilt.NewWorker(WebScraperWorker, model, []tools.Tool{scraper})
	if err != nil {
		return nil, err
	}

	return prebuilt.NewTeam(ResearchTeam, model,
		[]prebuilt.Member{searchWorker, scraperWorker},
		prebuilt.WithSupervisorName(ResearchSupervisor))
}
