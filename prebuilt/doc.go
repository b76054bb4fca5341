// Package prebuilt provides the supervisor, worker and team building blocks
// of teamgraph.
//
// # Supervisor
//
// A Supervisor routes a conversation between the members of a fixed roster.
// The model is forced to call a "route" tool whose only argument is an enum
// of the roster plus FINISH, so the decision never comes from free text. A
// missing or unparseable call, or a name outside the enum, is a
// *RoutingError and stops the run.
//
// # Worker
//
// A Worker runs a ReAct loop (see CreateReactAgent) over the shared
// conversation and reports back with a single message authored with its
// name. Tool failures are shown to the model as "Error: ..." observations.
//
// # Team
//
// A Team wires a supervisor and its members into a star-shaped graph. Teams
// are Members too, which is how the research and writing teams sit under
// the top supervisor:
//
//	search, _ := prebuilt.NewWorker("search", model, []tools.Tool{tavily})
//	research, _ := prebuilt.NewTeam("research_team", model, []prebuilt.Member{search})
//	top, _ := prebuilt.NewTeam("top", model, []prebuilt.Member{research},
//		prebuilt.WithSupervisorName("supervisor"))
//
//	state, err := top.Run(ctx, prebuilt.MessagesState{
//		Messages: []prebuilt.Message{prebuilt.HumanMessage(question)},
//	}, &graph.Config{RecursionLimit: 150})
package prebuilt
