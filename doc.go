// teamgraph - Hierarchical Agent Teams in Go
//
// teamgraph answers a question with a hierarchy of LLM agents. A top
// supervisor delegates to a research team and a writing team; each team is
// a supervisor of its own over tool-using workers. Control returns up the
// hierarchy until the top supervisor decides to FINISH, and the tokens the
// workers produce are streamed to the client as Server-Sent Events.
//
// # Quick Start
//
// Configure a provider and a search key, then start the server:
//
//	export OPENAI_API_KEY=sk-...
//	export TAVILY_API_KEY=tvly-...
//	teamgraph serve --port 4080
//
//	curl -N 'http://localhost:4080/rest/v1/question?question=When+is+Taylor+Swift%27s+next+tour%3F'
//
// Or ask from the terminal:
//
//	teamgraph ask "Write a short poem about the Eras Tour and save it to poem.md"
//
// # Topology
//
//	supervisor
//	├── research_team      (research_team_supervisor)
//	│   ├── search         tavily_search_results_json | brave_search
//	│   └── web_scraper    scrape_webpages
//	└── writing_team       (doc_writing_team_supervisor)
//	    ├── doc_writer     write_document, edit_document, read_document
//	    ├── note_taker     create_outline, read_document
//	    └── chart_generator read_document, python_repl_tool
//
// Supervisors route with a forced tool call whose argument is an enum of
// their roster plus FINISH. Teams see only the last message of their
// parent's conversation and report back with a single message. Every node
// of every nested graph spends from one recursion budget (150 by default).
//
// # Package Structure
//
//   - graph: generic state graph engine with command routing, a shared
//     recursion budget, namespaces, callbacks, streaming, checkpointing and
//     Mermaid export
//   - prebuilt: conversation state, Supervisor, ReAct Worker and Team
//   - tool: search, scraping, document and Python tools
//   - teams: the research team, the writing team and the Orchestrator
//   - gateway: turns a streamed run into SSE lines with [Error] and [DONE]
//     sentinels
//   - server: chi router, SSE endpoint, error envelope, CORS, request
//     logging and metrics middleware
//   - store: checkpoint stores (memory, redis, sqlite, postgres)
//   - config, errs, log, llm, metrics: configuration, error taxonomy,
//     logging, model providers and Prometheus instrumentation
//   - cmd/teamgraph: the serve, ask and graph commands
package teamgraph // import "github.com/smallnest/teamgraph"
