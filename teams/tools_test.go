package teams

import (
	"time"

	"github.com/smallnest/teamgraph/config"
)

func toolsConfig(dir, provider string) config.Tools {
	return config.Tools{
		SearchProvider:   provider,
		TavilyAPIKey:     "tvly",
		BraveAPIKey:      "brave",
		SearchMaxResults: 3,
		WorkingDirectory: dir,
		PythonPath:       "python3",
		CodeTimeout:      time.Second,
	}
}
